// Command shopper drives a storefront session against a running API from
// the terminal. Tokens are kept in a session file between invocations.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/vastra/storefront/internal/apiclient"
	"github.com/vastra/storefront/internal/config"
	"github.com/vastra/storefront/internal/storefront"
)

const usage = `usage: shopper [flags] <command> [args]

commands:
  register --name NAME --email EMAIL --password PASSWORD
  login --email EMAIL --password PASSWORD
  logout
  me
  products [--category SLUG] [--search TEXT] [--page N] [--limit N]
  cart
  cart add PRODUCT_ID
  cart set PRODUCT_ID QUANTITY
  cart remove PRODUCT_ID
  cart clear
  wishlist
  wishlist toggle PRODUCT_ID
  addresses
  watch

flags:
`

type app struct {
	state *storefront.State
	out   *json.Encoder
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	fs := pflag.NewFlagSet("shopper", pflag.ExitOnError)
	// flags after the command belong to the command
	fs.SetInterspersed(false)
	apiURL := fs.String("api", cfg.APIURL, "API root including /api/v1")
	sessionPath := fs.String("session", defaultSessionPath(), "file holding the session tokens")
	verbose := fs.BoolP("verbose", "v", false, "debug logging")
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:]) //nolint:errcheck

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	client := apiclient.New(*apiURL, apiclient.WithTimeout(cfg.Timeout))
	if err := (sessionFile{path: *sessionPath}).attach(client.Tokens()); err != nil {
		log.Fatal().Err(err).Msg("Failed to load session")
	}

	state := storefront.New(client)
	defer state.Close()

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")
	a := &app{state: state, out: out}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		log.Error().Err(err).Msg(describeError(err))
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.state.Logout(ctx)
	case "me":
		user, err := a.state.Session.Restore(ctx)
		if err != nil {
			return err
		}
		return a.out.Encode(user)
	case "products":
		return a.products(ctx, args)
	case "cart":
		return a.cart(ctx, args)
	case "wishlist":
		return a.wishlist(ctx, args)
	case "addresses":
		if err := a.state.Addresses.Fetch(ctx); err != nil {
			return err
		}
		return a.out.Encode(a.state.Addresses.Snapshot())
	case "watch":
		return a.watch(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("register", pflag.ContinueOnError)
	name := fs.StringP("name", "n", "", "display name")
	email := fs.StringP("email", "e", "", "email address")
	password := fs.StringP("password", "p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.state.Session.Register(ctx, *name, *email, *password)
	if err != nil {
		return err
	}
	return a.out.Encode(user)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
	email := fs.StringP("email", "e", "", "email address")
	password := fs.StringP("password", "p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.state.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	return a.out.Encode(user)
}

func (a *app) products(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("products", pflag.ContinueOnError)
	var q apiclient.ProductQuery
	fs.StringVarP(&q.Category, "category", "c", "", "category slug")
	fs.StringVarP(&q.Search, "search", "s", "", "name search")
	fs.IntVar(&q.Page, "page", 0, "page, starting at 1")
	fs.IntVar(&q.Limit, "limit", 0, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.state.Catalog.Fetch(ctx, q); err != nil {
		return err
	}
	return a.out.Encode(a.state.Catalog.Snapshot())
}

func (a *app) cart(ctx context.Context, args []string) error {
	cart := a.state.Cart
	if err := cart.Fetch(ctx); err != nil {
		return err
	}

	var err error
	switch sub := subcommand(args); sub {
	case "":
	case "add":
		var product storefront.ProductInfo
		if product, err = a.productInfo(ctx, args, 1); err == nil {
			err = cart.Add(ctx, product)
		}
	case "set":
		if len(args) != 3 {
			return errors.New("usage: cart set PRODUCT_ID QUANTITY")
		}
		quantity, convErr := strconv.Atoi(args[2])
		if convErr != nil {
			return fmt.Errorf("quantity: %w", convErr)
		}
		err = cart.UpdateQuantity(ctx, args[1], quantity)
	case "remove":
		if len(args) != 2 {
			return errors.New("usage: cart remove PRODUCT_ID")
		}
		err = cart.Remove(ctx, args[1])
	case "clear":
		err = cart.ClearRemote(ctx)
	default:
		return fmt.Errorf("unknown cart command %q", sub)
	}
	if err != nil {
		return err
	}

	a.state.Hydrate()
	return a.out.Encode(cart.Snapshot())
}

func (a *app) wishlist(ctx context.Context, args []string) error {
	wishlist := a.state.Wishlist
	if err := wishlist.Fetch(ctx); err != nil {
		return err
	}

	switch sub := subcommand(args); sub {
	case "":
	case "toggle":
		product, err := a.productInfo(ctx, args, 1)
		if err != nil {
			return err
		}
		if err := wishlist.Toggle(ctx, product); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown wishlist command %q", sub)
	}

	a.state.Hydrate()
	return a.out.Encode(wishlist.Snapshot())
}

// watch keeps the collections loaded and re-syncs them on push events
func (a *app) watch(ctx context.Context) error {
	if _, err := a.state.Session.Restore(ctx); err != nil {
		return err
	}
	if err := a.state.Load(ctx); err != nil {
		return err
	}
	log.Info().Int("cart_units", a.state.Cart.Count()).Msg("Watching for changes, Ctrl-C to stop")

	for {
		err := a.state.Sync(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		// The stream ends when the access token expires. Restore refreshes
		// the token pair; the fetches pick up anything missed meanwhile.
		log.Debug().Msg("Event stream ended, reconnecting")
		if _, err := a.state.Session.Restore(ctx); err != nil {
			return err
		}
		if err := errors.Join(
			a.state.Cart.Fetch(ctx),
			a.state.Wishlist.Fetch(ctx),
			a.state.Addresses.Fetch(ctx),
		); err != nil {
			log.Warn().Err(err).Msg("Re-sync after reconnect failed")
		}
	}
}

// productInfo resolves the product named by args[i] through the catalog
func (a *app) productInfo(ctx context.Context, args []string, i int) (storefront.ProductInfo, error) {
	if len(args) <= i {
		return storefront.ProductInfo{}, errors.New("missing PRODUCT_ID")
	}
	product, err := a.state.Catalog.Product(ctx, args[i])
	if err != nil {
		return storefront.ProductInfo{}, err
	}
	return storefront.ProductInfoFrom(product), nil
}

// describeError turns a failed command into a hint for the shopper
func describeError(err error) string {
	switch {
	case apiclient.IsUnauthorized(err):
		return "Not signed in or session expired, run: shopper login"
	case apiclient.IsNotFound(err):
		return "Not found: " + apiclient.Message(err)
	default:
		return apiclient.Message(err)
	}
}

func subcommand(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
