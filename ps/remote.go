// Snapshot export and import over local files, HTTP and S3.
package ps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/simpledb/simpledb/core"
)

// S3Config holds credentials and addressing for S3 destinations. The zero
// value falls back to the ambient AWS configuration.
type S3Config struct {
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string
}

// archive is the single-document export format: the engine configuration
// plus every table snapshot.
type archive struct {
	Config core.Config       `json:"config"`
	Tables []json.RawMessage `json:"tables"`
}

// ExportSnapshot writes the database as one JSON document to dest, which
// may be a local path, file://, or s3:// URL.
func ExportSnapshot(database *core.Database, dest string, cfg *S3Config) error {
	doc := archive{Config: database.Config()}
	for _, name := range database.TableNames() {
		table, err := database.Table(name)
		if err != nil {
			return err
		}
		data, err := encodeTable(table)
		if err != nil {
			return fmt.Errorf("failed to encode table %s: %w", name, err)
		}
		doc.Tables = append(doc.Tables, json.RawMessage(data))
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	writer, err := openRemoteWriter(dest, cfg)
	if err != nil {
		return err
	}
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}

// ImportSnapshot reads an exported document from source, which may be a
// local path, file://, http(s):// or s3:// URL, and rebuilds the database.
func ImportSnapshot(source string, cfg *S3Config) (*core.Database, error) {
	reader, err := openRemoteReader(source, cfg)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	var doc archive
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid snapshot document: %w", err)
	}

	database := core.NewDatabase(doc.Config)
	for _, raw := range doc.Tables {
		table, err := decodeTable(raw, doc.Config)
		if err != nil {
			return nil, err
		}
		if err := database.AdoptTable(table); err != nil {
			return nil, err
		}
	}
	return database, nil
}

type urlScheme string

const (
	schemeFile  urlScheme = "file"
	schemeS3    urlScheme = "s3"
	schemeHTTP  urlScheme = "http"
	schemeHTTPS urlScheme = "https"
	schemeLocal urlScheme = "local"
)

func detectScheme(path string) urlScheme {
	lowerPath := strings.ToLower(path)
	switch {
	case strings.HasPrefix(lowerPath, "s3://"):
		return schemeS3
	case strings.HasPrefix(lowerPath, "https://"):
		return schemeHTTPS
	case strings.HasPrefix(lowerPath, "http://"):
		return schemeHTTP
	case strings.HasPrefix(lowerPath, "file://"):
		return schemeFile
	default:
		return schemeLocal
	}
}

func openRemoteReader(path string, cfg *S3Config) (io.ReadCloser, error) {
	switch scheme := detectScheme(path); scheme {
	case schemeLocal, schemeFile:
		localPath := path
		if scheme == schemeFile {
			localPath = strings.TrimPrefix(path, "file://")
		}
		return osOpen(localPath)
	case schemeHTTP, schemeHTTPS:
		return openHTTPReader(path)
	case schemeS3:
		return openS3Reader(path, cfg)
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s", path)
	}
}

func openRemoteWriter(path string, cfg *S3Config) (io.WriteCloser, error) {
	switch scheme := detectScheme(path); scheme {
	case schemeLocal, schemeFile:
		localPath := path
		if scheme == schemeFile {
			localPath = strings.TrimPrefix(path, "file://")
		}
		return osCreate(localPath)
	case schemeHTTP, schemeHTTPS:
		return nil, fmt.Errorf("HTTP/HTTPS does not support writing")
	case schemeS3:
		return openS3Writer(path, cfg)
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s", path)
	}
}

func openHTTPReader(url string) (io.ReadCloser, error) {
	client := &http.Client{
		Timeout: 5 * time.Minute,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP request returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func parseS3URL(url string) (bucket, key string, err error) {
	path := strings.TrimPrefix(url, "s3://")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 {
		return "", "", fmt.Errorf("invalid S3 URL: %s", url)
	}
	return parts[0], parts[1], nil
}

func getS3Client(ctx context.Context, cfg *S3Config) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error

	if cfg != nil && cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg != nil && cfg.AccessKey != "" && cfg.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		opts = append(opts, config.WithCredentialsProvider(creds))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	clientOpts := []func(*s3.Options){}
	if cfg != nil && cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

func openS3Reader(url string, cfg *S3Config) (io.ReadCloser, error) {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	client, err := getS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get S3 object: %w", err)
	}
	return resp.Body, nil
}

// s3Writer buffers writes and uploads on Close.
type s3Writer struct {
	ctx    context.Context
	client *s3.Client
	bucket string
	key    string
	buffer []byte
	closed bool
}

func (w *s3Writer) Write(p []byte) (n int, err error) {
	if w.closed {
		return 0, fmt.Errorf("writer is closed")
	}
	w.buffer = append(w.buffer, p...)
	return len(p), nil
}

func (w *s3Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	_, err := w.client.PutObject(w.ctx, &s3.PutObjectInput{
		Bucket: aws.String(w.bucket),
		Key:    aws.String(w.key),
		Body:   strings.NewReader(string(w.buffer)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func openS3Writer(url string, cfg *S3Config) (io.WriteCloser, error) {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	client, err := getS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &s3Writer{
		ctx:    ctx,
		client: client,
		bucket: bucket,
		key:    key,
		buffer: make([]byte, 0),
	}, nil
}

// osOpen and osCreate wrap the os calls so tests can swap them out.
var osOpen = func(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

var osCreate = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}
