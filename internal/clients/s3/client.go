// Package s3 provides the shapefile store client backed by an S3 bucket.
//
// The bucket is laid out as one folder per state under a common prefix,
// each folder holding the assembly, parliamentary and booth shapefile
// components (.shp, .shx, .dbf and optionally .prj).
package s3

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/aristath/boothmap/internal/modules/geodata"
)

// shapefileExtensions are fetched together for each base key. The .prj
// component is optional in the source buckets.
var shapefileExtensions = []string{".shp", ".shx", ".dbf", ".prj"}

// API is the subset of the S3 service the client depends on
type API interface {
	awss3.ListObjectsV2APIClient
	manager.DownloadAPIClient
}

// Config holds the connection settings for the shapefile bucket
type Config struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string // folder prefix under which state folders live
	Dir       string // local directory for downloaded shapefiles
}

// Client fetches state shapefile sets from S3 and caches them on local disk
type Client struct {
	api        API
	downloader *manager.Downloader
	bucket     string
	prefix     string
	dir        string
	log        zerolog.Logger
}

var _ geodata.Store = (*Client)(nil)

// New creates a client using static credentials when provided, otherwise
// the default AWS credential chain.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewWithAPI(awss3.NewFromConfig(awsCfg), cfg, log)
}

// NewWithAPI creates a client over a provided S3 API (for testing)
func NewWithAPI(api API, cfg Config, log zerolog.Logger) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket name is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create shapefile dir: %w", err)
	}

	prefix := cfg.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &Client{
		api:        api,
		downloader: manager.NewDownloader(api),
		bucket:     cfg.Bucket,
		prefix:     prefix,
		dir:        cfg.Dir,
		log:        log.With().Str("client", "s3").Logger(),
	}, nil
}

// ListStates returns the state folder names under the base prefix, sorted
func (c *Client) ListStates(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}

	paginator := awss3.NewListObjectsV2Paginator(c.api, &awss3.ListObjectsV2Input{
		Bucket:    aws.String(c.bucket),
		Prefix:    aws.String(c.prefix),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list states: %w", err)
		}
		for _, cp := range page.CommonPrefixes {
			if cp.Prefix == nil {
				continue
			}
			state := strings.TrimSuffix(strings.TrimPrefix(*cp.Prefix, c.prefix), "/")
			if state != "" {
				seen[state] = struct{}{}
			}
		}
	}

	states := make([]string, 0, len(seen))
	for s := range seen {
		states = append(states, s)
	}
	sort.Strings(states)
	return states, nil
}

// Download fetches the shapefile set of the given type for a state.
// fileType is matched case-insensitively against object filenames, so
// "assembly" finds e.g. "UP_Assembly.shp".
func (c *Client) Download(ctx context.Context, state, fileType string) (geodata.ShapefileSet, error) {
	base, err := c.findBase(ctx, state, fileType)
	if err != nil {
		return geodata.ShapefileSet{}, err
	}

	paths := map[string]string{}
	for _, ext := range shapefileExtensions {
		local := filepath.Join(c.dir, fmt.Sprintf("%s_%s%s", sanitize(state), fileType, ext))
		if err := c.fetch(ctx, base+ext, local); err != nil {
			if ext == ".prj" {
				continue
			}
			return geodata.ShapefileSet{}, fmt.Errorf("failed to download %s%s: %w", base, ext, err)
		}
		paths[ext] = local
	}

	c.log.Debug().
		Str("state", state).
		Str("file_type", fileType).
		Str("base", base).
		Msg("downloaded shapefile set")

	return geodata.ShapefileSet{SHP: paths[".shp"], DBF: paths[".dbf"]}, nil
}

// findBase locates the object key base (without extension) of the .shp file
// matching fileType in a state's folder.
func (c *Client) findBase(ctx context.Context, state, fileType string) (string, error) {
	statePrefix := c.prefix + state + "/"
	want := strings.ToLower(fileType)

	var available []string
	paginator := awss3.NewListObjectsV2Paginator(c.api, &awss3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(statePrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list files for state %s: %w", state, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			key := *obj.Key
			name := strings.ToLower(path.Base(key))
			if !strings.HasSuffix(name, ".shp") {
				continue
			}
			if strings.Contains(name, want) {
				return key[:len(key)-len(".shp")], nil
			}
			available = append(available, path.Base(key))
		}
	}

	if len(available) == 0 {
		return "", fmt.Errorf("no files found for state %s", state)
	}
	return "", fmt.Errorf("no %s shapefile found for %s (available: %s)",
		fileType, state, strings.Join(available, ", "))
}

func (c *Client) fetch(ctx context.Context, key, local string) error {
	f, err := os.Create(local)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = c.downloader.Download(ctx, f, &awss3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		_ = os.Remove(local)
		return err
	}
	return nil
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, s)
}
