package dummy

import (
	"context"
	"os"
	"path/filepath"
	"stem-separator/src/application/executor"
	"strings"
	"sync"
)

var _ executor.Executor = &SpleeterExecutor{}

func NewDummySpleeterExecutor() *SpleeterExecutor {
	return &SpleeterExecutor{
		Unavailable:  false,
		Hang:         false,
		MissingStems: nil,
	}
}

// SpleeterExecutor stands in for the spleeter binary. By default it writes
// every stem of the requested model as <input contents>-<stem>.
type SpleeterExecutor struct {
	// Unavailable makes the command exit with an error and write nothing
	Unavailable bool
	// Hang blocks the command until its context is done
	Hang bool
	// MissingStems are left unwritten while the command still succeeds
	MissingStems []string

	lock     sync.Mutex
	commands []*SpleeterCommand
}

type SpleeterCommand struct {
	ctx          context.Context
	unavailable  bool
	hang         bool
	missingStems []string

	Name string
	Args []string
	Dir  string
}

func (s *SpleeterExecutor) CommandContext(ctx context.Context, name string, arg ...string) executor.Command {
	s.lock.Lock()
	defer s.lock.Unlock()

	cmd := &SpleeterCommand{
		ctx:          ctx,
		unavailable:  s.Unavailable,
		hang:         s.Hang,
		missingStems: append([]string{}, s.MissingStems...),
		Name:         name,
		Args:         append([]string{}, arg...),
	}
	s.commands = append(s.commands, cmd)

	return cmd
}

func (s *SpleeterExecutor) CallCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.commands)
}

func (s *SpleeterExecutor) CommandForCall(i int) SpleeterCommand {
	s.lock.Lock()
	defer s.lock.Unlock()

	return *s.commands[i]
}

func getOptionValue(args []string, key string) (string, error) {
	for i, arg := range args {
		if arg == key && i+1 < len(args) {
			return args[i+1], nil
		}
	}

	return "", UnexpectedInput
}

func (s *SpleeterCommand) SetDir(dir string) {
	s.Dir = dir
}

func (s *SpleeterCommand) CombinedOutput() ([]byte, error) {
	if len(s.Args) == 0 || s.Args[0] != "separate" {
		return nil, UnexpectedInput
	}

	sourcePath := s.Args[len(s.Args)-1]

	splitParam, err := getOptionValue(s.Args, "-p")
	if err != nil {
		return nil, err
	}

	outputRoot, err := getOptionValue(s.Args, "-o")
	if err != nil {
		return nil, err
	}

	codec := "wav"
	if codecArg, err := getOptionValue(s.Args, "-c"); err == nil {
		codec = codecArg
	}

	if s.hang {
		<-s.ctx.Done()
		return []byte("Killed"), s.ctx.Err()
	}

	if s.unavailable {
		return []byte("ERROR:spleeter:Failed to load model"), SpleeterFailure
	}

	contents, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, err
	}

	stems := []string{}

	switch splitParam {
	case "spleeter:2stems":
		stems = append(stems, "vocals", "accompaniment")
	case "spleeter:4stems":
		stems = append(stems, "vocals", "drums", "bass", "other")
	case "spleeter:5stems":
		stems = append(stems, "vocals", "drums", "bass", "piano", "other")
	default:
		return nil, UnexpectedInput
	}

	baseName := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	stemDir := filepath.Join(outputRoot, baseName)
	if err := os.MkdirAll(stemDir, os.ModePerm); err != nil {
		return nil, err
	}

	for _, stem := range stems {
		if s.isMissing(stem) {
			continue
		}

		stemPath := filepath.Join(stemDir, stem+"."+codec)
		stemContents := []byte(string(contents) + "-" + stem)
		if err := os.WriteFile(stemPath, stemContents, os.ModePerm); err != nil {
			return nil, err
		}
	}

	return []byte("INFO:spleeter:File " + sourcePath + " written succesfully"), nil
}

func (s *SpleeterCommand) isMissing(stem string) bool {
	for _, missing := range s.missingStems {
		if missing == stem {
			return true
		}
	}

	return false
}
