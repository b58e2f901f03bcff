package main // Entry point package

import (
	"context"   // context carries cancellation from signals
	"errors"    // errors detects help requests
	"flag"      // flag parses the command line
	"fmt"       // fmt prints command output
	"net/http"  // http configures the transport timeout
	"os"        // os supplies the terminal streams
	"os/signal" // signal stops the client on Ctrl-C
	"strings"   // strings joins translate arguments
	"syscall"   // syscall names SIGTERM
	"time"      // time formats the token expiry

	"github.com/hellenika/hellenika/internal/admin"     // admin polls the pending count
	"github.com/hellenika/hellenika/internal/apiclient" // apiclient sends backend requests
	"github.com/hellenika/hellenika/internal/apperr"    // apperr renders user-facing errors
	"github.com/hellenika/hellenika/internal/auth"      // auth tracks the signed-in user
	"github.com/hellenika/hellenika/internal/config"    // config loads environment settings
	"github.com/hellenika/hellenika/internal/console"   // console wraps the terminal
	"github.com/hellenika/hellenika/internal/handler"   // handler implements the screens
	"github.com/hellenika/hellenika/internal/logging"   // logging builds the leveled logger
	"github.com/hellenika/hellenika/internal/nav"       // nav runs the screen loop
	"github.com/hellenika/hellenika/internal/router"    // router mounts the screens
	"github.com/hellenika/hellenika/internal/service"   // service wraps the backend endpoints
	"github.com/hellenika/hellenika/internal/session"   // session stores the bearer token
)

const usage = `Usage: hellenika [flags] [command]

Commands:
  (none)                  start the interactive client
  status                  show the signed-in user and token expiry
  logout                  forget the stored token
  translate -to el|en T   translate text T

Flags:
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "hellenika:", err) // Report and exit if the client fails
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load() // Load environment config
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("hellenika", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	apiURL := fs.String("api", cfg.APIURL, "backend base URL")
	level := fs.String("log-level", cfg.LogLevel, "debug, info, warn, error or off")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.APIURL = strings.TrimRight(*apiURL, "/")
	cfg.LogLevel = *level
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New("hellenika", cfg.LogLevel, os.Stderr)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()
	tokens, err := session.OpenTokens(ctx, storage)
	if err != nil {
		return fmt.Errorf("open token storage: %w", err)
	}

	navigator := nav.New(log)
	client := apiclient.New(cfg.APIURL, tokens,
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		apiclient.WithRedirector(navigator),
		apiclient.WithLogger(log),
	)
	store := session.NewStore(tokens, client)
	words := service.NewWordService(client)
	translator := service.NewTranslationService(client)
	log.Debugf("backend %s (token store %s)", cfg.APIURL, cfg.TokenStore)

	switch cmd := fs.Arg(0); cmd {
	case "":
	case "status":
		return status(ctx, store)
	case "logout":
		if err := store.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	case "translate":
		return translate(ctx, translator, fs.Args()[1:])
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}

	provider := auth.NewProvider(store, log)
	defer provider.Close()
	go provider.Init(ctx)

	monitor := admin.NewMonitor(words, provider, cfg.PendingPoll, log)
	monitor.OnChange(func(n int) { log.Debugf("pending words: %d", n) })
	go monitor.Watch(ctx)

	term := console.New(os.Stdin, os.Stdout)
	wordsScreen := handler.NewWordsHandler(words, provider, monitor, translator, term, log, cfg.SearchDebounce, cfg.PageSize)
	defer wordsScreen.Close()
	router.Register(navigator, router.Handlers{
		Auth:       handler.NewAuthHandler(provider, term),
		Words:      wordsScreen,
		Flashcards: handler.NewFlashcardsHandler(words, term, cfg.FlipDelay),
		Admin:      handler.NewAdminHandler(service.NewAdminService(client), words, monitor, term, log),
	}, provider, term.Out())

	if err := navigator.Run(ctx, "/"); err != nil {
		return err
	}
	term.Println("Αντίο!")
	return nil
}

// openStorage picks the token storage named by the config.
func openStorage(ctx context.Context, cfg config.Config) (session.Storage, func(), error) {
	switch cfg.TokenStore {
	case config.StoreRedis:
		rdb, err := config.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStorage(rdb, cfg.TokenKey), func() { _ = rdb.Close() }, nil
	case config.StoreMemory:
		return &session.MemoryStorage{}, func() {}, nil
	default:
		return session.NewFileStorage(cfg.TokenFile), func() {}, nil
	}
}

func status(ctx context.Context, store *session.Store) error {
	if !store.IsAuthenticated() {
		fmt.Println("Not signed in.")
		return nil
	}
	user, err := store.CurrentUser(ctx)
	if err != nil {
		fmt.Println(apperr.Message(err))
		return nil
	}
	fmt.Printf("Signed in as %s (%s)\n", user.Email, user.Role)
	if exp, ok := store.TokenExpiry(); ok {
		fmt.Printf("Token expires %s (in %s)\n", exp.Local().Format(time.RFC1123), time.Until(exp).Round(time.Minute))
	}
	return nil
}

func translate(ctx context.Context, tr *service.TranslationService, args []string) error {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	to := fs.String("to", "en", "target language: el (Greek) or en (English)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(text) == "" {
		return errors.New("translate: no text given")
	}
	var (
		out string
		err error
	)
	switch *to {
	case "el", "greek":
		out, err = tr.ToGreek(ctx, text)
	case "en", "english":
		out, err = tr.ToEnglish(ctx, text)
	default:
		return fmt.Errorf("translate: unknown language %q", *to)
	}
	if err != nil {
		return errors.New(apperr.Message(err))
	}
	fmt.Println(out)
	return nil
}
