package config

import "os"

func IsDebug() bool {
	return os.Getenv("CHATBOT_DEBUG") == "1"
}
