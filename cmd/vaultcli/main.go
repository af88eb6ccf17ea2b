// Package main is the interactive vaultfill client: it signs in to the
// vault (passively when a remembered login exists), handles the OTP and
// device-trust steps, and lists credentials ranked for a hostname.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/vaultfill/vaultfill/internal/cache"
	"github.com/vaultfill/vaultfill/internal/config"
	"github.com/vaultfill/vaultfill/internal/device"
	"github.com/vaultfill/vaultfill/internal/kvstore"
	"github.com/vaultfill/vaultfill/internal/logger"
	"github.com/vaultfill/vaultfill/internal/login"
	"github.com/vaultfill/vaultfill/internal/matcher"
	"github.com/vaultfill/vaultfill/internal/models"
	"github.com/vaultfill/vaultfill/internal/vaulthttp"
)

var (
	version   string
	buildDate string
)

// consoleListener prints progress and forwards each terminal result.
type consoleListener struct {
	results chan login.Result
}

func (l *consoleListener) OnProgress(stage login.Stage) {
	switch stage {
	case login.StageLoggingIn:
		fmt.Println("Signing in...")
	case login.StageRetrieving:
		fmt.Println("Retrieving credentials...")
	case login.StageDecrypting:
		fmt.Println("Decrypting credentials...")
	}
}

func (l *consoleListener) OnLoginCompleted(result login.Result) {
	l.results <- result
}

func promptLine(scanner *bufio.Scanner, prompt string) string {
	fmt.Print(prompt)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

// promptWithDefault prompts for a value, keeping def on empty input.
func promptWithDefault(scanner *bufio.Scanner, label, def string) string {
	if def == "" {
		return promptLine(scanner, label+": ")
	}
	if v := promptLine(scanner, fmt.Sprintf("%s [%s]: ", label, def)); v != "" {
		return v
	}
	return def
}

// authenticate drives the orchestrator until a non-OTP terminal result,
// prompting for the passcode and trust label as needed.
func authenticate(o *login.Orchestrator, listener *consoleListener, scanner *bufio.Scanner, email, password string) login.Result {
	if err := o.LoginWithoutOTP(email, password); err != nil {
		log.Fatal(err)
	}
	result := <-listener.results
	for result.Outcome == login.OutcomeOTPRequired {
		otp := promptLine(scanner, "One-time passcode: ")
		trustLabel := promptLine(scanner, "Trust this device? Enter a label, or leave empty: ")
		if err := o.LoginWithOTP(otp, trustLabel); err != nil {
			log.Fatal(err)
		}
		result = <-listener.results
	}
	return result
}

// signIn authenticates against the vault, trying the remembered login
// first. When the remembered password is rejected the user is dropped
// back to the prompt — email pre-filled — to correct it and retry, so a
// stale cache never strands them.
func signIn(o *login.Orchestrator, listener *consoleListener, scanner *bufio.Scanner, c *cache.Cache) (result login.Result, email, password string, remembered bool) {
	email, remembered = c.RememberedIdentity()
	if remembered {
		if pw, ok := c.RememberedSecret(); ok {
			password = pw
			fmt.Printf("Signing in as remembered user %s\n", email)
		} else {
			remembered = false
		}
	}
	for {
		if !remembered {
			email = promptWithDefault(scanner, "Email", email)
			password = promptLine(scanner, "Password: ")
		}
		result = authenticate(o, listener, scanner, email, password)
		if result.Outcome == login.OutcomeFailure && remembered {
			fmt.Println("Login failed:", result.Message)
			remembered = false
			continue
		}
		return result, email, password, remembered
	}
}

// printRanked lists credentials, best matches for hostname first, with
// band headers between the groups.
func printRanked(set *models.CredentialSet, hostname string) {
	best := make(map[string]struct{})
	if hostname != "" {
		best = matcher.MatchesForHostname(set, hostname)
	}
	ranked := matcher.Rank(set.All(), best)
	headers := matcher.HeaderIndexes(len(ranked), len(best))

	headerAt := make(map[int]bool, len(headers))
	for _, i := range headers {
		headerAt[i] = true
	}
	for i, c := range ranked {
		if headerAt[i] {
			switch {
			case len(best) == 0:
				fmt.Println("-- All credentials --")
			case i == 0:
				fmt.Println("-- Matching credentials --")
			default:
				fmt.Println("-- Other credentials --")
			}
		}
		fmt.Printf("%s (%s) %s\n", c.Name, c.Username, c.URL)
	}
	if len(ranked) == 0 {
		fmt.Println("No credentials")
	}
}

// repl accepts commands against the logged-in credential set.
func repl(scanner *bufio.Scanner, set *models.CredentialSet, c *cache.Cache) {
	for {
		fmt.Print("vaultfill> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Available commands: help, list, match <hostname>, forget, exit")
		case "list":
			printRanked(set, "")
		case "match":
			if len(args) < 2 {
				fmt.Println("Usage: match <hostname>")
				continue
			}
			printRanked(set, args[1])
		case "forget":
			if err := c.SetRememberedIdentityAndSecret(nil, nil); err != nil {
				fmt.Println("Failed to clear remembered login:", err)
			} else {
				fmt.Println("Remembered login cleared")
			}
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func main() {
	options := config.Parse()

	fmt.Printf("vaultfill client version: %s, build date: %s\n", version, buildDate)

	lg := logger.New()
	defer func() { _ = lg.Log.Sync() }()
	if err := lg.Init("warn"); err != nil {
		log.Fatal(err)
	}
	zapLogger := lg.Log

	deviceID, err := device.Identifier(device.NewFileSource(), options.Namespace)
	if err != nil {
		log.Fatal(err)
	}

	var store cache.KeyValueStore
	if options.DatabaseDSN != "" {
		pg, err := kvstore.OpenPostgresStore(options.DatabaseDSN)
		if err != nil {
			log.Fatal(err)
		}
		store = pg
	} else {
		fs, err := kvstore.NewFileStore(options.StorePath)
		if err != nil {
			log.Fatal(err)
		}
		store = fs
	}

	credCache := cache.New(store, deviceID, options.KeyIterations, zapLogger)
	scanner := bufio.NewScanner(os.Stdin)

	listener := &consoleListener{results: make(chan login.Result, 1)}
	session := vaulthttp.NewSession(options.VaultURL, deviceID)
	orchestrator := login.New(session, listener, zapLogger)

	result, email, password, remembered := signIn(orchestrator, listener, scanner, credCache)
	switch result.Outcome {
	case login.OutcomeSuccess:
		// fall through to the shell below
	case login.OutcomeFailure:
		fmt.Println("Login failed:", result.Message)
		os.Exit(1)
	case login.OutcomeCancelled:
		fmt.Println("Login cancelled")
		os.Exit(1)
	}

	if !remembered {
		answer := promptLine(scanner, "Remember this login on this device? [y/N]: ")
		if strings.EqualFold(answer, "y") {
			if err := credCache.SetRememberedIdentityAndSecret(&email, &password); err != nil {
				zapLogger.Warn("failed to remember login", zap.Error(err))
				fmt.Println("Could not remember login:", err)
			}
		}
	}

	repl(scanner, result.Credentials, credCache)
}
