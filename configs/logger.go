package configs

import "go.uber.org/zap"

var logger *zap.Logger

func Logger() *zap.Logger {
	return logger
}

// SetupLogger builds the process-wide zap logger. Development config keeps
// console output readable; production switches to JSON.
func SetupLogger(appEnv string) {
	var err error
	if appEnv == "prod" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
}
