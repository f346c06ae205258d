package main

import (
	"fmt"
	"os"
	"strings"

	"blognest/app/config"
	"blognest/service"
)

const CliVersion = "1.0.0"

var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches the command line. It is separate from main so tests
// can drive it with a stubbed exit.
func RealMain() {
	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "help":
		printHelp()
	case "version":
		fmt.Printf("blognest version %s\n", CliVersion)
	case "serve":
		service.Configure(config.Load())
		exit(service.RunAppServer())
	case "db":
		service.Configure(config.Load())
		exit(service.HandleCommand(os.Args[2:]))
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		exit(1)
	}
}

func printHelp() {
	helpText := `Usage: blognest <command> [options]
Commands:
  help                           Display this help message.
  version                        Show version information.
  serve                          Run the blog API server.
  db <command>                   Manage the database:
                                   clean, init, backup, restore [file], reindex

Configuration is read from the environment and an optional .env file.
`
	fmt.Println(helpText)
}
