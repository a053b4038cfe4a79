package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/aliyusifov99/inventory-management/internal/config"
	"github.com/aliyusifov99/inventory-management/pkg/jwt"

	"github.com/sirupsen/logrus"
)

// issue-token mints an operator token signed with JWT_SECRET
func main() {
	subject := flag.String("sub", "", "operator id recorded as created_by on movements")
	name := flag.String("name", "", "operator display name")
	privileges := flag.String("privileges", strings.Join(jwt.AllPrivileges, ","), "comma separated privilege codes")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to JWT_TTL_HOURS)")
	flag.Parse()

	if *subject == "" {
		logrus.Fatal("-sub is required")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	lifetime := cfg.Auth.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	codes, err := parsePrivileges(*privileges)
	if err != nil {
		logrus.WithError(err).Fatal("Invalid privileges")
	}

	signer, err := jwt.NewSigner(cfg.Auth.JWTSecret, lifetime)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure signer")
	}
	token, err := signer.GenerateToken(*subject, *name, codes)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to sign token")
	}

	logrus.WithFields(logrus.Fields{
		"sub":        *subject,
		"privileges": codes,
		"expires_at": time.Now().Add(lifetime).Format(time.RFC3339),
	}).Info("Token issued")
	fmt.Println(token)
}

func parsePrivileges(raw string) ([]string, error) {
	known := make(map[string]bool, len(jwt.AllPrivileges))
	for _, p := range jwt.AllPrivileges {
		known[p] = true
	}

	var codes []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !known[p] {
			return nil, fmt.Errorf("unknown privilege %q", p)
		}
		codes = append(codes, p)
	}
	return codes, nil
}
