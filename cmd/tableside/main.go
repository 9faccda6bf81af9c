package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/spf13/pflag"

	"github.com/appetiteclub/tableside/cmd/tableside/internal/commands"
)

const (
	appName    = "tableside"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Command flags are parsed per command; config comes from TABLESIDE_* env.
	config, err := apt.LoadConfig("TABLESIDE", nil)
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel, _ := config.GetString("log.level")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := commands.NewEnv(config, logger, os.Stdout)
	command := os.Args[1]
	args := os.Args[2:]

	var run func(context.Context, *commands.Env, []string) error
	switch command {
	case "kitchen":
		run = commands.Kitchen
	case "service":
		run = commands.Service
	case "tracker":
		run = commands.Tracker
	case "manager":
		run = commands.Manager
	case "menu":
		run = commands.Menu
	case "login":
		run = commands.Login
	case "prefs":
		run = commands.Prefs
	case "order":
		run = commands.Order
	case "request":
		run = commands.Request
	case "status":
		run = commands.Status
	case "cancel":
		run = commands.Cancel
	case "settle":
		run = commands.Settle
	case "bill":
		run = commands.Bill
	case "seed-demo":
		run = commands.SeedDemo
	case "reset-db":
		run = commands.ResetDB

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)
		return

	case "help", "-h", "--help":
		printUsage()
		return

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err := run(ctx, env, args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		stop()
		log.Fatalf("%s failed: %v", command, err)
	}
}

func printUsage() {
	fmt.Printf(`%s - restaurant floor console

Usage:
  %s <command> [flags]

Live views:
  kitchen      Food tickets waiting for the kitchen, oldest first
  service      Food ready for pickup and open guest requests
  tracker      A table's orders as the guest sees them (--table)
  manager      Revenue, paid orders and best seller

Actions:
  menu         List the menu, or flip an item's availability (--toggle ID)
  login        Sign a guest in at a table (--table --phone [--name] [--pref ...])
  prefs        Add dietary preferences for the signed-in guest (--table --add ...)
  order        Place a food order (--table --item "Butter Chicken:2" ...)
  request      Raise a service request (--table --kind water|bill|... [--label])
  status       Move a ticket (--id --status [--role])
  cancel       Cancel a ticket (--id [--role])
  settle       Pay the table's open tickets (--table [--coupon])
  bill         Preview the table's bill without paying (--table [--coupon])

Utilities:
  seed-demo    Insert demo tickets into the order database
  reset-db     Drop every tableside database - USE WITH CAUTION
  version      Print version information
  help         Show this help message

Live views accept --once to print a single frame and --interval to change
the poll period. Run '%s <command> --help' for the flags of a command.

Environment Variables:
  TABLESIDE_SERVICES_ORDER_URL   Order service API (default: http://localhost:8081/api)
  TABLESIDE_SERVICES_MENU_URL    Menu service API (default: http://localhost:8082/api)
  TABLESIDE_SERVICES_GUEST_URL   Guest service API (default: http://localhost:8083/api)
  TABLESIDE_NATS_URL             NATS server for instant refreshes (optional)
  TABLESIDE_DB_MONGO_URL         MongoDB for seed-demo and reset-db (default: mongodb://localhost:27017)
  TABLESIDE_CLIENT_STATE_FILE    Where the device identity is kept (default: tableside-state.yaml)
  TABLESIDE_CLIENT_TIMEOUT       Per-request timeout, never retried (default: 10s)
  TABLESIDE_LOG_LEVEL            Log level: debug, info, warn, error (default: info)

Examples:
  %s kitchen
  %s login --table 4 --phone 9876543210 --name Asha
  %s order --table 4 --item "Butter Chicken:1" --item "Kerala Parotta:3"
  %s settle --table 4 --coupon WELCOME100

`, appName, appName, appName, appName, appName, appName, appName)
}
