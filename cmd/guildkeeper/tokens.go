package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"guildkeeper/internal/adapters/auth"
)

var errUnknownCommand = errors.New("unknown command")

// runTokenCommand handles the ops token helpers:
//
//	guildkeeper hash-token < token.txt
//	guildkeeper issue-token -secret $OPS_JWT_SECRET -subject alice -ttl 24h
func runTokenCommand(args []string, stdin io.Reader, stdout io.Writer, now time.Time) error {
	if len(args) == 0 {
		return errUnknownCommand
	}
	switch args[0] {
	case "hash-token":
		fs := flag.NewFlagSet("hash-token", flag.ContinueOnError)
		cost := fs.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read token: %w", err)
		}
		hash, err := auth.HashToken(strings.TrimSpace(line), *cost)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, hash)
		return err
	case "issue-token":
		fs := flag.NewFlagSet("issue-token", flag.ContinueOnError)
		secret := fs.String("secret", "", "OPS_JWT_SECRET of the deployment")
		subject := fs.String("subject", "", "who the token is for")
		ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		token, err := auth.IssueToken(*secret, *subject, *ttl, now)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, token)
		return err
	default:
		return errUnknownCommand
	}
}
