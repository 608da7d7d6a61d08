package cerr

import (
	"github.com/apex/log"
	"github.com/cockroachdb/errors"
)

func Log(err error) {
	logger(err).Error(err.Error())
}

func LogWarn(err error) {
	logger(err).Warn(err.Error())
}

func logger(err error) log.Interface {
	var ctxErr ContextualError
	if !errors.As(err, &ctxErr) {
		return log.Log
	}

	return log.WithFields(log.Fields(ctxErr.Context.ContextFields))
}
