package envvar

import (
	"fmt"
	"os"
)

const (
	PORT               = "PORT"
	LOG_LEVEL          = "LOG_LEVEL"
	ALLOWED_FE_ORIGINS = "ALLOWED_FE_ORIGINS"

	PUBLIC_DIR = "PUBLIC_DIR"
	UPLOAD_DIR = "UPLOAD_DIR"
	OUTPUT_DIR = "OUTPUT_DIR"

	SPLEETER_BIN_PATH         = "SPLEETER_BIN_PATH"
	SPLEETER_WORKING_DIR_PATH = "SPLEETER_WORKING_DIR_PATH"
	SPLEETER_STEMS            = "SPLEETER_STEMS"
	SPLEETER_CODEC            = "SPLEETER_CODEC"
	SEPARATION_TIMEOUT        = "SEPARATION_TIMEOUT"
	MAX_UPLOAD_SIZE           = "MAX_UPLOAD_SIZE"
	CLEANUP_POLICY            = "CLEANUP_POLICY"
	ISOLATE_JOBS              = "ISOLATE_JOBS"
	VERIFY_OUTPUTS            = "VERIFY_OUTPUTS"
	STALE_UPLOAD_MAX_AGE      = "STALE_UPLOAD_MAX_AGE"

	RABBITMQ_URL        = "RABBITMQ_URL"
	RABBITMQ_QUEUE_NAME = "RABBITMQ_QUEUE_NAME"

	GOOGLE_CLOUD_KEY                 = "GOOGLE_CLOUD_KEY"
	GOOGLE_CLOUD_STORAGE_BUCKET_NAME = "GOOGLE_CLOUD_STORAGE_BUCKET_NAME"

	AWS_ACCESS_KEY_ID     = "AWS_ACCESS_KEY_ID"
	AWS_SECRET_ACCESS_KEY = "AWS_SECRET_ACCESS_KEY"
	DYNAMODB_REGION       = "DYNAMODB_REGION"
	DYNAMODB_HOST         = "DYNAMODB_HOST"
)

func MustGet(key string) string {
	val, isSet := os.LookupEnv(key)
	if !isSet {
		panic(fmt.Sprintf("No env variable found for key %s", key))
	}

	if val == "" {
		panic(fmt.Sprintf("Env variable is empty for key %s", key))
	}

	return val
}

func GetOrDefault(key string, defaultVal string) string {
	val, isSet := os.LookupEnv(key)
	if !isSet || val == "" {
		return defaultVal
	}

	return val
}

// IsSet is true only when the variable exists and is non-empty.
func IsSet(key string) bool {
	val, isSet := os.LookupEnv(key)
	return isSet && val != ""
}
