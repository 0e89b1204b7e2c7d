package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googledrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// listFields names every file attribute the scanner consumes; requesting
// them explicitly keeps the responses small.
const listFields = "nextPageToken, files(id, name, mimeType, size, parents, createdTime, modifiedTime, ownedByMe, shared, starred, trashed, webViewLink)"

const getFields = "id, name, mimeType, size, parents, createdTime, modifiedTime, ownedByMe, shared, starred, trashed, webViewLink"

// GoogleClient implements Client against the Google Drive v3 API.
type GoogleClient struct {
	service *googledrive.Service
}

// GoogleClientFactory builds GoogleClients from an OAuth credentials file
// and a previously obtained token file. Token acquisition flows are out of
// scope; the token file must already exist.
type GoogleClientFactory struct {
	CredentialsFile string
	TokenFile       string
}

func (f *GoogleClientFactory) NewClient(ctx context.Context) (Client, error) {
	credBytes, err := os.ReadFile(f.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(credBytes, googledrive.DriveMetadataReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}

	tokenBytes, err := os.ReadFile(f.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenBytes, &token); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}

	service, err := googledrive.NewService(ctx,
		option.WithHTTPClient(oauthCfg.Client(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &GoogleClient{service: service}, nil
}

func (c *GoogleClient) ListItems(ctx context.Context, opts ListOptions) (ListPage, error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	call := c.service.Files.List().
		Context(ctx).
		Q("trashed = false").
		PageSize(pageSize).
		Fields(listFields)
	if opts.PageToken != "" {
		call = call.PageToken(opts.PageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return ListPage{}, classifyError(err)
	}

	page := ListPage{
		Records:       make([]ItemRecord, 0, len(resp.Files)),
		NextPageToken: resp.NextPageToken,
	}
	for _, f := range resp.Files {
		page.Records = append(page.Records, recordFromFile(f))
	}
	return page, nil
}

func (c *GoogleClient) GetItem(ctx context.Context, id string) (ItemRecord, error) {
	f, err := c.service.Files.Get(id).
		Context(ctx).
		Fields(getFields).
		Do()
	if err != nil {
		return ItemRecord{}, classifyError(err)
	}
	return recordFromFile(f), nil
}

func recordFromFile(f *googledrive.File) ItemRecord {
	return ItemRecord{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		Size:         f.Size,
		Parents:      f.Parents,
		CreatedTime:  parseDriveTime(f.CreatedTime),
		ModifiedTime: parseDriveTime(f.ModifiedTime),
		OwnedByMe:    f.OwnedByMe,
		Shared:       f.Shared,
		Starred:      f.Starred,
		Trashed:      f.Trashed,
		WebViewLink:  f.WebViewLink,
	}
}

// parseDriveTime parses the API's RFC 3339 timestamps, returning the zero
// time for empty or malformed values.
func parseDriveTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
