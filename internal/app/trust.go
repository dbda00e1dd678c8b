package app

import (
	"context"
	"fmt"
	"os"

	"shrimpwatch/internal/truststore"
)

// TrustList prints the accepted URLs and domains.
func (a *App) TrustList(ctx context.Context) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	trust := truststore.New(store, a.Logger)

	urls, err := trust.AcceptedURLs(ctx)
	if err != nil {
		return err
	}
	domains, err := trust.AcceptedDomains(ctx)
	if err != nil {
		return err
	}

	if len(urls) == 0 && len(domains) == 0 {
		fmt.Fprintln(os.Stdout, "no accepted backends")
		return nil
	}

	fmt.Fprintln(os.Stdout, "accepted URLs:")
	for _, u := range urls {
		fmt.Fprintf(os.Stdout, "  %s\n", u)
	}
	fmt.Fprintln(os.Stdout, "accepted domains:")
	for _, d := range domains {
		fmt.Fprintf(os.Stdout, "  %s\n", d)
	}
	return nil
}

// TrustAdd records consent for a backend URL ahead of time, so the first
// health probe against a tunnel does not trip the interactive warning page.
func (a *App) TrustAdd(ctx context.Context, rawURL string) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	trust := truststore.New(store, a.Logger)
	if err := trust.Accept(ctx, rawURL); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "accepted %s\n", rawURL)
	return nil
}
