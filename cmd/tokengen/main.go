// Command tokengen mints a development access token for the document store.
//
//	tokengen -user u1 -role clinician -s secretKey -t 60
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/dmitrijs2005/dmoclinic/internal/server/auth"
)

func main() {
	user := flag.String("user", "", "account id")
	role := flag.String("role", string(common.RolePatient), "patient or clinician")
	secret := flag.String("s", "secretKey", "JWT HMAC secret key")
	minutes := flag.Int("t", 24*60, "token validity (in minutes)")
	flag.Parse()

	r := common.Role(*role)
	if *user == "" || !r.Valid() {
		flag.Usage()
		os.Exit(2)
	}

	tok, err := auth.GenerateToken(*user, r, []byte(*secret), time.Duration(*minutes)*time.Minute)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println(tok)
}
