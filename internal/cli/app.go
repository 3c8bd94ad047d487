// Package cli implements the folio administration tool. It generates
// signing secrets and creates admin accounts directly in the store.
package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/folio/internal/logging"
	"github.com/dmitrijs2005/folio/internal/netx"
	"github.com/dmitrijs2005/folio/internal/server/auth"
	"github.com/dmitrijs2005/folio/internal/server/config"
	"github.com/dmitrijs2005/folio/internal/server/models"
	"github.com/dmitrijs2005/folio/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/folio/internal/server/services"
	"github.com/dmitrijs2005/folio/internal/shared"
)

const usage = `usage: cli [config flags] <command>

commands:
  gen-key              print a random signing secret
  create-admin [name]  create an admin account in the configured store
  upload-media <file>  upload a file to the media bucket and print its key
`

const maxMediaSize = 20 << 20

var errPasswordMismatch = errors.New("passwords do not match")

type mediaPresigner interface {
	PresignUpload(ctx context.Context) (string, string, error)
}

// Seams for tests.
var (
	newMedia = func(c *config.Config) mediaPresigner {
		return services.NewMediaService(c)
	}
	uploadObject = netx.UploadToPresignedURL
)

// openManager is a seam for tests.
var openManager = func(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	return repomanager.Open(ctx, repomanager.StoreConfig{
		Driver:      c.StoreDriver,
		MongoURL:    c.MongoURL,
		MongoDBName: c.MongoDBName,
		DatabaseDSN: c.DatabaseDSN,
	})
}

// CommandArgs drops the config flags and their values, which LoadConfig
// has already consumed, leaving the command and its arguments.
func CommandArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "-") && a != "-h" && a != "--help" {
			if !strings.Contains(a, "=") && i+1 < len(args) {
				i++
			}
			continue
		}
		out = append(out, a)
	}
	return out
}

type App struct {
	config *config.Config
	logger logging.Logger
	in     *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config, in io.Reader, out io.Writer) *App {
	return &App{
		config: c,
		logger: logging.New(out, c.LogBackend, c.LogFormat, c.LogLevel),
		in:     bufio.NewReader(in),
		out:    out,
	}
}

// Run executes the command named by args[0] and returns the exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "gen-key":
		err = a.GenKey()
	case "create-admin":
		var name string
		if len(args) > 1 {
			name = args[1]
		}
		err = a.CreateAdmin(ctx, name)
	case "upload-media":
		if len(args) < 2 {
			fmt.Fprint(a.out, usage)
			return 2
		}
		err = a.UploadMedia(ctx, args[1])
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return 0
	default:
		fmt.Fprintf(a.out, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return 1
	}
	return 0
}

// GenKey prints a hex secret suitable for SECRET_KEY or REFRESH_SECRET_KEY.
func (a *App) GenKey() error {
	key, err := shared.MakeRandHexString(shared.SecretKeySize)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, key)
	return err
}

func (a *App) readNewPassword() ([]byte, error) {
	pw, err := GetPassword("Enter password", a.out)
	if err != nil {
		return nil, err
	}
	confirm, err := GetPassword("Repeat password", a.out)
	if err != nil {
		shared.WipeByteArray(pw)
		return nil, err
	}
	defer shared.WipeByteArray(confirm)

	if !bytes.Equal(pw, confirm) {
		shared.WipeByteArray(pw)
		return nil, errPasswordMismatch
	}
	return pw, nil
}

// CreateAdmin prompts for a name when none is given and for a password,
// then creates a verified admin account.
func (a *App) CreateAdmin(ctx context.Context, name string) error {
	if name == "" {
		var err error
		if name, err = GetSimpleText(a.in, "Admin username", a.out); err != nil {
			return err
		}
	}
	if err := auth.ValidateUsername(name); err != nil {
		return err
	}

	pw, err := a.readNewPassword()
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(pw)
	if err := auth.ValidatePassword(string(pw)); err != nil {
		return err
	}

	m, err := openManager(ctx, a.config)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(ctx); err != nil {
			a.logger.Warn(ctx, "store close failed", "error", err)
		}
	}()

	tokens := auth.NewTokenService(a.config.SecretKey, a.config.RefreshSecretKey, a.config.AccessTokenValidityDuration, a.config.RefreshTokenValidityDuration)
	accounts := services.NewAccountService(m, tokens, auth.NewBcryptHasher(0), a.logger)
	if err := accounts.Signup(ctx, name, string(pw), models.RoleAdmin); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "admin %q created\n", name)
	return nil
}

// UploadMedia stores the file at path under a fresh media key and prints
// the key together with the public download path.
func (a *App) UploadMedia(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > maxMediaSize {
		return fmt.Errorf("%s is larger than %d bytes", path, maxMediaSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	key, url, err := newMedia(a.config).PresignUpload(ctx)
	if err != nil {
		return err
	}
	if err := uploadObject(ctx, url, data); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s\n/blog/uploads/%s\n", key, key)
	return nil
}
