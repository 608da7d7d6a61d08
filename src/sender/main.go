package main

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"stem-separator/src/application/jobs/separate"
	"stem-separator/src/lib/envvar"
	"time"
)

// Posts an audio file to a running server and prints its answer.
func main() {
	if len(os.Args) != 2 {
		panic("usage: sender <audio file>")
	}

	audioPath := os.Args[1]
	serverURL := envvar.GetOrDefault("SERVER_URL", "http://localhost:5000")

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		panic(err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile(separate.FileFieldName, filepath.Base(audioPath))
	if err != nil {
		panic(err)
	}

	if _, err := part.Write(audio); err != nil {
		panic(err)
	}

	if err := writer.Close(); err != nil {
		panic(err)
	}

	client := http.Client{Timeout: 10 * time.Minute}
	response, err := client.Post(serverURL+"/upload", writer.FormDataContentType(), body)
	if err != nil {
		panic(err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		panic(err)
	}

	fmt.Println(response.Status)
	fmt.Println(string(responseBody))
}
