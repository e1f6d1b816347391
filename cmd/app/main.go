package main

import (
	"context"
	"fmt"
	"os"

	"user-account-service/internal/cli"
)

// @title           User Account Service API
// @version         1.0
// @description     Account registration, login and profile management. Authenticated endpoints take the session token as a ?token= query parameter.

// @host      localhost:8080
// @BasePath  /

// @tag.name users
// @tag.description Account management

func main() {
	if err := cli.NewRoot().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
