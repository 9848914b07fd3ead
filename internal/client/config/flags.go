package config

import (
	"flag"
	"os"

	"github.com/vikinglab/contentvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend server
//	-l string   bind address of the local callback listener
//	-u string   callback base URL advertised to the server
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-l", "-u"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ServerEndpointAddr, "a", config.ServerEndpointAddr, "base URL of the backend server")
	fs.StringVar(&config.CallbackListenAddr, "l", config.CallbackListenAddr, "bind address of the callback listener")
	fs.StringVar(&config.CallbackBaseURL, "u", config.CallbackBaseURL, "callback base URL advertised to the server")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
