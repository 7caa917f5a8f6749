package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hvila/tablero/internal/model"
	"github.com/hvila/tablero/internal/store"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new work item",
	Long: `Add a new production request to the board.

Examples:
  tablero add --client "Acme" --product "Spring promo" --advisor 1a2b3c4d
  tablero add --client "Acme" --product "Logo swap" --type correction -p 1 --advisor 1a2b3c4d --logo ./acme.png`,
	RunE: runAdd,
}

var (
	addClient    string
	addProduct   string
	addType      string
	addPriority  int
	addAdvisor   string
	addVideoType string
	addBoard     string
	addLogos     []string
)

func init() {
	addCmd.Flags().StringVarP(&addClient, "client", "c", "", "Client name (required)")
	addCmd.Flags().StringVar(&addProduct, "product", "", "Product or campaign (required)")
	addCmd.Flags().StringVarP(&addType, "type", "t", model.RequestFullVideo, "Request type (full_video, addition, variant, correction)")
	addCmd.Flags().IntVarP(&addPriority, "priority", "p", model.PriorityLow, "Priority (1=urgent, 4=low)")
	addCmd.Flags().StringVarP(&addAdvisor, "advisor", "a", "", "Assigned advisor user id (required)")
	addCmd.Flags().StringVar(&addVideoType, "video-type", "", "Video type")
	addCmd.Flags().StringVar(&addBoard, "board", "", "Board name")
	addCmd.Flags().StringSliceVar(&addLogos, "logo", nil, "Logo file to upload (repeatable)")

	_ = addCmd.MarkFlagRequired("client")
	_ = addCmd.MarkFlagRequired("product")
	_ = addCmd.MarkFlagRequired("advisor")
}

func runAdd(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	logoURLs, err := uploadLogos(ctx, client, addLogos)
	if err != nil {
		return err
	}

	item, err := client.CreateWorkItem(ctx, store.CreateWorkItemRequest{
		Client:      addClient,
		Product:     addProduct,
		RequestType: addType,
		Priority:    addPriority,
		AdvisorID:   addAdvisor,
		VideoType:   addVideoType,
		Board:       addBoard,
		LogoURLs:    logoURLs,
	})
	if err != nil {
		return fmt.Errorf("failed to create work item: %w", err)
	}

	fmt.Printf("✅ Created %s for %s (%s)\n", item.Folio, item.Client, item.Product)
	return nil
}

func uploadLogos(ctx context.Context, client *store.Client, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	files := make([]store.LogoUpload, 0, len(paths))
	handles := make([]*os.File, 0, len(paths))
	defer func() {
		for _, f := range handles {
			_ = f.Close()
		}
	}()

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open logo %s: %w", path, err)
		}
		handles = append(handles, f)
		files = append(files, store.LogoUpload{Name: filepath.Base(path), Reader: f})
	}

	var urls []string
	for _, res := range client.UploadLogos(ctx, files) {
		if res.Err != nil {
			fmt.Printf("⚠️  Logo %s failed to upload: %v\n", res.Name, res.Err)
			continue
		}
		urls = append(urls, res.URL)
	}
	return urls, nil
}
