// Package plugins registers all built-in plugins.
package plugins

import (
	"firestige.xyz/framepeek/internal/source/file"
	"firestige.xyz/framepeek/pkg/plugin"
	"firestige.xyz/framepeek/plugins/reporter/console"
	"firestige.xyz/framepeek/plugins/reporter/protobuf"
)

func init() {
	// Register capture plugins
	plugin.RegisterCapturer(file.Name, file.NewCapturer)

	// Register reporter plugins
	plugin.RegisterReporter(console.Name, console.NewConsoleReporter)
	plugin.RegisterReporter(protobuf.Name, protobuf.NewProtobufReporter)
}
