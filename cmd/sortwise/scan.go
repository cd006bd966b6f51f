package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/sortwise/internal/cli"
	"github.com/Veraticus/sortwise/internal/common"
	"github.com/Veraticus/sortwise/internal/model"
)

func scanCmd() *cobra.Command {
	var (
		text  string
		photo string
		zip   string
	)

	cmd := &cobra.Command{
		Use:   "scan [description]",
		Short: "Classify an item from a photo or a description",
		Long: `Scan asks the classifier which bin an item belongs in.

Describe the item with --text (or as arguments), or pass a photo with --photo.
The ZIP code from your settings is used unless --zip is given.`,
		Example: `  sortwise scan "greasy pizza box"
  sortwise scan --photo can.jpg --zip 94102`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if text == "" {
				text = strings.Join(args, " ")
			}
			req, err := buildScanRequest(text, photo, zip)
			if err != nil {
				return err
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.session.Authenticated() {
				quota, err := a.scanner.GuestQuota(ctx)
				if err != nil {
					a.logger.Warn("could not check guest quota", "error", err)
				} else if quota.Exhausted() {
					return common.ErrQuotaExhausted
				}
			}

			res, err := a.scanner.Scan(ctx, a.session, req)
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), cli.RenderScan(res))
			return err
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "describe the item")
	cmd.Flags().StringVarP(&photo, "photo", "p", "", "path to a photo of the item")
	cmd.Flags().StringVarP(&zip, "zip", "z", "", "5-digit ZIP code for local rules")
	cmd.MarkFlagsMutuallyExclusive("text", "photo")

	return cmd
}

func buildScanRequest(text, photo, zip string) (model.ClassificationRequest, error) {
	if photo == "" {
		return model.ClassificationRequest{
			Mode:       model.ScanModeText,
			FreeText:   text,
			PostalCode: zip,
		}, nil
	}

	data, err := os.ReadFile(photo)
	if err != nil {
		return model.ClassificationRequest{}, common.NewUserError("Could not read the photo "+photo, err)
	}

	return model.ClassificationRequest{
		Mode:       model.ScanModePhoto,
		ImageData:  data,
		ImageMIME:  http.DetectContentType(data),
		PostalCode: zip,
	}, nil
}
