package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"TourAdmin/config"
	"TourAdmin/pkg/token"
)

// 为后台操作员签发 access token，输出到标准输出
func main() {
	operator := flag.String("operator", "", "operator name written into the token")
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to JWT_EXPIRE_MINUTES")
	flag.Parse()

	if *operator == "" {
		log.Fatal("-operator is required")
	}

	config.Validate()
	if err := token.Init(); err != nil {
		log.Fatalf("init token: %v", err)
	}

	signed, expire, err := token.IssueAdminToken(*operator, *ttl)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}

	fmt.Println(signed)
	log.Printf("expires at %s", expire.Format(time.RFC3339))
}
