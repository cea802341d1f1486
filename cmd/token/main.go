// Package main issues access tokens for the stockledger API.
//
//	STOCKLEDGER_JWT_SECRET=... token -user alice -roles clerk,manager
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"stockledger/internal/config"
	"stockledger/internal/domain/auth"
)

func main() {
	userID := flag.String("user", "", "user id written to the token (required)")
	email := flag.String("email", "", "optional email claim")
	roles := flag.String("roles", "", "comma separated roles")
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to STOCKLEDGER_JWT_TTL")
	flag.Parse()

	if *userID == "" {
		flag.Usage()
		os.Exit(2)
	}

	var cfg config.JWTConfig
	if err := envconfig.Process(config.EnvPrefix+"_JWT", &cfg); err != nil {
		fail(err)
	}
	if *ttl > 0 {
		cfg.TTL = *ttl
	}

	svc, err := auth.NewJWTService(auth.JWTConfig{
		Secret:         cfg.Secret,
		Issuer:         cfg.Issuer,
		AccessTokenTTL: cfg.TTL,
	})
	if err != nil {
		fail(err)
	}

	var roleList []string
	for _, r := range strings.Split(*roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roleList = append(roleList, r)
		}
	}

	token, expiresAt, err := svc.GenerateAccessToken(*userID, *email, roleList)
	if err != nil {
		fail(err)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "token: %v\n", err)
	os.Exit(1)
}
