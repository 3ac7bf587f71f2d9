package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nativemint/nfm/collection"
	"github.com/nativemint/nfm/native"
	"github.com/nativemint/nfm/store"
)

func main() {
	ctx := context.Background()

	bp := flag.String("d", "~/.nfm/data", "database directory path")
	cp := flag.String("c", "~/.nfm/config.toml", "configuration file path")
	flag.Parse()

	if strings.HasPrefix(*cp, "~/") {
		usr, _ := user.Current()
		*cp = filepath.Join(usr.HomeDir, (*cp)[2:])
	}
	conf, err := Setup(*cp)
	if err != nil {
		panic(err)
	}

	if strings.HasPrefix(*bp, "~/") {
		usr, _ := user.Current()
		*bp = filepath.Join(usr.HomeDir, (*bp)[2:])
	}
	db, err := store.OpenBadger(ctx, *bp)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	self, err := native.AddressFromHex(conf.Contract)
	if err != nil {
		panic(err)
	}
	owner, err := native.AddressFromHex(conf.Owner)
	if err != nil {
		panic(err)
	}
	fee, err := decimal.NewFromString(conf.CreationFee)
	if err != nil {
		panic(err)
	}

	// The daemon runs against the in-process reference ledger; a production
	// deployment swaps in the host's own Service implementation.
	ledger := native.NewMemLedger(fee)

	mgr, err := collection.NewManager(self, owner, ledger, ledger, db, logger)
	if err != nil {
		panic(err)
	}

	api := NewAPI(mgr, logger)
	logger.Info().Str("listen", conf.Listen).Msg("nfm started")
	err = http.ListenAndServe(conf.Listen, api.Router())
	if err != nil {
		panic(err)
	}
}
