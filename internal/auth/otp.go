package auth

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"time"
)

// OTPTTL is how long an issued code stays valid.
const OTPTTL = 10 * time.Minute

// TestPhone always receives TestPhoneCode instead of a random code, so
// app-store review accounts and smoke tests can log in deterministically.
const (
	TestPhone     = "+911234567890"
	TestPhoneCode = "123456"
)

// GenerateCode returns a 6-digit numeric one-time code for the given
// destination (email or phone). The designated test phone gets its fixed
// code; everyone else gets a uniformly random one.
func GenerateCode(destination string) string {
	if destination == TestPhone {
		return TestPhoneCode
	}
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand only fails if the OS entropy source is broken.
		panic(fmt.Sprintf("otp: generate code: %v", err))
	}
	return fmt.Sprintf("%06d", n.Int64())
}

// DeliverCode "sends" the code. Real SMS/email delivery is out of scope;
// the code is written to the server log instead.
func DeliverCode(destination, code string) {
	log.Printf("OTP for %s: %s", destination, code)
}
