package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
)

// Users prints one page of profiles. args are the optional page number and
// page size.
func (a *App) Users(ctx context.Context, args []string) error {
	page, size := 0, 20
	var err error
	if len(args) > 0 {
		if page, err = strconv.Atoi(args[0]); err != nil {
			return errors.New("page must be an integer")
		}
	}
	if len(args) > 1 {
		if size, err = strconv.Atoi(args[1]); err != nil {
			return errors.New("size must be an integer")
		}
	}

	p, err := a.userService.List(ctx, page, size)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOUNTRY\tCREATED")
	for _, it := range p.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.ID, it.FullName, it.CountryCode, it.CreatedAt.Format("2006-01-02"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "page %d (size %d) of %d users\n", p.Page, p.Size, p.TotalItems)
	return nil
}

// Avatar uploads the file named by args[0] as the profile picture.
func (a *App) Avatar(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: avatar <file>")
	}
	up, err := a.userService.UploadAvatar(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded as %s\n", up.Key)
	return nil
}

func (a *App) AvatarURL(ctx context.Context) error {
	url, err := a.userService.AvatarURL(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, url)
	return nil
}
