// Package autoload initializes the global logger from the environment.
// Blank-import it from main.
package autoload

import (
	configx "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/pkg/config"
	logx "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
