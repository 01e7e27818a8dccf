package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/pearguacamole/VroomVault/internal/catalog"
	catalogerrors "github.com/pearguacamole/VroomVault/internal/catalog/errors"
	"github.com/pearguacamole/VroomVault/internal/imageset"
	"github.com/pearguacamole/VroomVault/internal/session"
	"github.com/pearguacamole/VroomVault/internal/view"
)

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// intList is a repeatable integer flag.
type intList []int

func (l *intList) String() string { return fmt.Sprint([]int(*l)) }

func (l *intList) Set(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*l = append(*l, n)
	return nil
}

func runSignup(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("signup", a)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "login email")
	password := fs.String("password", "", "password")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.client.Signup(ctx, catalog.Account{Name: *name, Email: *email, Password: *password}); err != nil {
		return screenError(err)
	}
	return a.print(map[string]string{"message": "account created, you can log in now"})
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("login", a)
	email := fs.String("email", "", "login email")
	password := fs.String("password", "", "password")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.client.Login(ctx, *email, *password); err != nil {
		return screenError(err)
	}
	a.deps.Navigator.Navigate(view.RouteProducts)
	return a.print(map[string]string{"message": "signed in"})
}

func runLogout(ctx context.Context, a *app, args []string) error {
	if err := parse(newFlagSet("logout", a), args); err != nil {
		return err
	}
	if err := a.client.Logout(ctx); err != nil {
		return err
	}
	a.deps.Navigator.Navigate(view.RouteLogin)
	return a.print(map[string]string{"message": "signed out"})
}

func runWhoami(ctx context.Context, a *app, args []string) error {
	if err := parse(newFlagSet("whoami", a), args); err != nil {
		return err
	}
	token, ok, err := a.sessions.Read(ctx)
	if err != nil {
		return err
	}
	out := map[string]any{"signed_in": ok}
	if ok {
		if email, err := session.Subject(token); err == nil {
			out["email"] = email
		}
	}
	return a.print(out)
}

func runList(ctx context.Context, a *app, args []string) error {
	if err := parse(newFlagSet("list", a), args); err != nil {
		return err
	}
	return a.showList(ctx, "")
}

func runSearch(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("search", a)
	keyword := fs.String("keyword", "", "text to look for in title, description and tags")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *keyword == "" && fs.NArg() > 0 {
		*keyword = strings.Join(fs.Args(), " ")
	}
	return a.showList(ctx, *keyword)
}

func (a *app) showList(ctx context.Context, keyword string) error {
	screen := view.NewListScreen(a.deps)
	defer screen.Close()
	var err error
	if keyword == "" {
		err = screen.Mount(ctx)
	} else {
		err = screen.SetKeyword(ctx, keyword)
	}
	state := screen.State()
	if err != nil {
		return failure(state.Error, err)
	}
	return a.print(listOutput(state.Products))
}

func runGet(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("get", a)
	id := fs.String("id", "", "car id")
	if err := parse(fs, args); err != nil {
		return err
	}
	screen, err := a.loadDetail(ctx, productID(fs, *id))
	if err != nil {
		return err
	}
	defer screen.Close()
	return a.print(productOutput(screen.State().Product))
}

func runCreate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("create", a)
	title := fs.String("title", "", "title")
	description := fs.String("description", "", "description")
	tags := fs.String("tags", "", "comma-separated tags")
	var images stringList
	fs.Var(&images, "image", "image file to attach (repeatable, up to 10)")
	if err := parse(fs, args); err != nil {
		return err
	}

	screen := view.NewCreateScreen(a.deps)
	defer screen.Close()
	if err := screen.SetFields(catalog.Fields{Title: *title, Description: *description, Tags: *tags}); err != nil {
		return err
	}
	files, err := readImages(images)
	if err != nil {
		return err
	}
	if err := screen.AddImages(files...); err != nil {
		return failure(screen.State().Error, err)
	}
	created, err := screen.Submit(ctx)
	if err != nil {
		return failure(screen.State().Error, err)
	}
	return a.print(productOutput(created))
}

func runUpdate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("update", a)
	id := fs.String("id", "", "car id")
	title := fs.String("title", "", "new title")
	description := fs.String("description", "", "new description")
	tags := fs.String("tags", "", "new comma-separated tags")
	var images stringList
	var drop intList
	fs.Var(&images, "image", "image file to add (repeatable)")
	fs.Var(&drop, "drop", "index of a stored image to remove (repeatable)")
	if err := parse(fs, args); err != nil {
		return err
	}

	screen, err := a.loadDetail(ctx, productID(fs, *id))
	if err != nil {
		return err
	}
	defer screen.Close()
	if err := screen.BeginEdit(); err != nil {
		return err
	}

	fields := screen.State().Draft
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			fields.Title = *title
		case "description":
			fields.Description = *description
		case "tags":
			fields.Tags = *tags
		}
	})
	if err := screen.SetFields(fields); err != nil {
		return err
	}

	// highest index first so the others keep their position
	slices.Sort(drop)
	for _, i := range slices.Backward(slices.Compact(drop)) {
		if err := screen.RemoveImage(i); err != nil {
			return fmt.Errorf("drop image %d: %w", i, err)
		}
	}
	files, err := readImages(images)
	if err != nil {
		return err
	}
	if err := screen.AddImages(files...); err != nil {
		return failure(screen.State().Error, err)
	}
	if err := screen.Submit(ctx); err != nil {
		return failure(screen.State().Error, err)
	}
	return a.print(productOutput(screen.State().Product))
}

func runDelete(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("delete", a)
	id := fs.String("id", "", "car id")
	if err := parse(fs, args); err != nil {
		return err
	}
	screen, err := a.loadDetail(ctx, productID(fs, *id))
	if err != nil {
		return err
	}
	defer screen.Close()
	if err := screen.Delete(ctx); err != nil {
		return failure(screen.State().Error, err)
	}
	return a.print(map[string]string{"message": "deleted", "id": screen.State().Product.ID})
}

func (a *app) loadDetail(ctx context.Context, id string) (*view.DetailScreen, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: -id is required", errUsage)
	}
	screen := view.NewDetailScreen(a.deps, id)
	if err := screen.Load(ctx); err != nil {
		msg := screen.State().Error
		screen.Close()
		return nil, failure(msg, err)
	}
	return screen, nil
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errUsage
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// productID takes the -id flag, or the first positional argument.
func productID(fs *flag.FlagSet, id string) string {
	if id == "" && fs.NArg() > 0 {
		return fs.Arg(0)
	}
	return id
}

func readImages(paths []string) ([]imageset.LocalFile, error) {
	if len(paths) > imageset.MaxImages {
		return nil, fmt.Errorf("at most %d images can be attached", imageset.MaxImages)
	}
	files := make([]imageset.LocalFile, 0, len(paths))
	for _, p := range paths {
		f, err := imageset.ReadLocalFile(p)
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		files = append(files, f)
	}
	return files, nil
}

// failure prefers the text the screen shows; screen errors like ErrBusy leave it empty.
func failure(text string, err error) error {
	if text == "" {
		return err
	}
	return errors.New(text)
}

func screenError(err error) error {
	return errors.New(catalogerrors.Message(err))
}

type productView struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        string   `json:"tags"`
	Cover       string   `json:"cover,omitempty"`
	ImageURLs   []string `json:"image_urls"`
}

func productOutput(p catalog.Product) productView {
	return productView{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Tags:        p.Tags,
		Cover:       p.Cover(),
		ImageURLs:   p.ImageURLs,
	}
}

func listOutput(products []catalog.Product) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, productOutput(p))
	}
	return out
}
