// token mints an access token for local testing of the API.
//
//	token --user user-1 --employee emp-1 --company company-1 --role employee
package main

import (
	"fmt"
	"os"

	"github.com/cmlabs-hris/attendance-regularization/internal/domain/user"
	"github.com/cmlabs-hris/attendance-regularization/internal/pkg/jwt"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var claims jwt.AccessClaims
	var role, employeeID, secret, expiry string

	flagSet := pflag.NewFlagSet("token", pflag.ContinueOnError)
	flagSet.StringVar(&claims.UserID, "user", "", "user id (required)")
	flagSet.StringVar(&employeeID, "employee", "", "employee id of the caller")
	flagSet.StringVar(&claims.CompanyID, "company", "", "company id (required)")
	flagSet.StringVar(&role, "role", string(user.RoleEmployee), "owner, manager, employee or pending")
	flagSet.BoolVar(&claims.IsAdmin, "admin", false, "mark the caller as platform admin")
	flagSet.StringVar(&secret, "secret", os.Getenv("JWT_SECRET_KEY"), "HS256 signing secret")
	flagSet.StringVar(&expiry, "expires-in", "1h", "token lifetime")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if claims.UserID == "" || claims.CompanyID == "" {
		return fmt.Errorf("--user and --company are required")
	}
	if secret == "" {
		return fmt.Errorf("--secret or JWT_SECRET_KEY is required")
	}
	if employeeID != "" {
		claims.EmployeeID = &employeeID
	}
	claims.Role = user.Role(role)
	if _, ok := user.RolePermissions[claims.Role]; !ok {
		return fmt.Errorf("unknown role %q", role)
	}

	token, _, err := jwt.NewJWTService(secret, expiry).GenerateAccessToken(claims)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
