// Command certgen writes a self-signed server certificate and key for
// running the sheet endpoint server with tls.cert and tls.key set.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/storystudio/ledger/internal/certgen"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, time.Now()); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer, now time.Time) error {
	fs := pflag.NewFlagSet("certgen", pflag.ContinueOnError)
	dir := fs.StringP("out", "o", "certs", "output directory")
	hosts := fs.StringSlice("host", []string{"localhost", "127.0.0.1"}, "DNS names and IPs the certificate covers")
	validFor := fs.Duration("valid-for", 365*24*time.Hour, "certificate lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	certPEM, keyPEM, err := certgen.SelfSigned(*hosts, now, *validFor)
	if err != nil {
		return err
	}
	certPath := filepath.Join(*dir, "server.crt")
	keyPath := filepath.Join(*dir, "server.key")
	if err := certgen.WritePair(certPath, keyPath, certPEM, keyPEM); err != nil {
		return err
	}
	fmt.Fprintf(out, "Certificate written to %s and %s\n", certPath, keyPath)
	return nil
}
