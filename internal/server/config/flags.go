package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/facelock/internal/flagx"
)

var serverFlags = []string{
	"-a", "-w", "-m", "-d", "-s", "-t", "-k", "-o", "-u", "-p", "-b", "-g", "-e",
	"-n", "-v", "-l", "-q", "-f", "-x", "-r", "-i", "-log",
}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     gRPC bind address (e.g., ":50051")
//	-w string     HTTP bind address (e.g., ":8080")
//	-m string     store backend: postgres | memory
//	-d string     PostgreSQL DSN
//	-s string     JWT HMAC secret key
//	-t int        access token validity, minutes
//	-k string     payload seal key
//	-o string     object backend: s3 | memory
//	-u/-p string  S3 root user / password
//	-b/-g string  S3 bucket / region
//	-e string     S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-n int        max unlock attempts for new items
//	-v duration   verifier timeout
//	-l duration   lock hold timeout
//	-q duration   unlock queue wait
//	-f float      face match threshold
//	-x string     remote biometric verifier endpoint
//	-r string     risk policy file (YAML)
//	-i string     default locale
//	-log string   log level
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run gRPC server")
	fs.StringVar(&config.EndpointAddrHTTP, "w", config.EndpointAddrHTTP, "address and port to run HTTP server")
	fs.StringVar(&config.StoreBackend, "m", config.StoreBackend, "store backend")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.SealKey, "k", config.SealKey, "payload seal key")
	fs.StringVar(&config.ObjectBackend, "o", config.ObjectBackend, "object backend")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.IntVar(&config.MaxAttempts, "n", config.MaxAttempts, "max unlock attempts")
	fs.DurationVar(&config.VerifierTimeout, "v", config.VerifierTimeout, "verifier timeout")
	fs.DurationVar(&config.LockHoldTimeout, "l", config.LockHoldTimeout, "lock hold timeout")
	fs.DurationVar(&config.UnlockQueueWait, "q", config.UnlockQueueWait, "unlock queue wait")
	fs.Float64Var(&config.FaceMatchThreshold, "f", config.FaceMatchThreshold, "face match threshold")
	fs.StringVar(&config.BiometricEndpoint, "x", config.BiometricEndpoint, "remote biometric verifier endpoint")
	fs.StringVar(&config.RiskPolicyFile, "r", config.RiskPolicyFile, "risk policy file")
	fs.StringVar(&config.Locale, "i", config.Locale, "default locale")
	fs.StringVar(&config.LogLevel, "log", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
}
