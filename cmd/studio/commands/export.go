package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/canvasml/studio/pkg/cli"
	"github.com/canvasml/studio/pkg/exportstore"
	"github.com/canvasml/studio/pkg/streamparse"
)

var (
	exportDir    string
	exportBucket string
	exportPrefix string
	exportRegion string
	exportQuery  string
)

var exportCmd = &cobra.Command{
	Use:   "export [file|-]",
	Short: "Export a parsed project to a directory or object store",
	Long: `Export parses the stream and writes the reconstructed files plus a
manifest.json to the destination: a local directory (--dir) or an
S3-compatible bucket (--bucket, credentials from the environment).

With --query, nothing is written; the jq expression runs against the export
document ({"manifest": ..., "files": {path: content}}) and the results are
printed as JSON lines.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "destination directory")
	exportCmd.Flags().StringVar(&exportBucket, "bucket", "", "destination S3 bucket")
	exportCmd.Flags().StringVar(&exportPrefix, "prefix", "", "key prefix inside the bucket")
	exportCmd.Flags().StringVar(&exportRegion, "region", "us-east-1", "S3 region")
	exportCmd.Flags().StringVarP(&exportQuery, "query", "q", "", "jq expression to run instead of exporting")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	p, err := parseStream(args, 4096)
	if err != nil {
		return err
	}

	manifest := exportManifest(p)
	if exportQuery != "" {
		return runQuery(p, manifest)
	}

	var sink exportstore.Sink
	switch {
	case exportDir != "":
		sink, err = exportstore.NewLocal(exportDir)
		if err != nil {
			return err
		}
	case exportBucket != "":
		client := awss3.New(awss3.Options{
			Region: exportRegion,
			Credentials: aws.CredentialsProviderFunc(envCredentials),
		})
		sink = exportstore.NewS3(client, exportBucket, exportPrefix)
	default:
		return fmt.Errorf("one of --dir, --bucket or --query is required")
	}

	n, err := exportstore.Export(cmd.Context(), sink, p.FS(), manifest)
	if err != nil {
		return err
	}
	cli.PrintSuccess("exported %d files", n)
	return nil
}

func exportManifest(p *streamparse.Parser) *exportstore.Manifest {
	m := &exportstore.Manifest{
		EntryPoint:      p.EntryPoint(),
		Dependencies:    p.Dependencies(),
		DevDependencies: p.DevDependencies(),
	}
	if info := p.Project(); info != nil {
		m.Name = info.Name
		m.Framework = info.Framework
	}
	return m
}

// runQuery evaluates a jq expression over the export document.
func runQuery(p *streamparse.Parser, manifest *exportstore.Manifest) error {
	query, err := gojq.Parse(exportQuery)
	if err != nil {
		return fmt.Errorf("invalid jq expression %q: %w", exportQuery, err)
	}

	manifest.FileCount = p.FS().Len()
	doc := map[string]any{
		"manifest": manifest,
		"files":    p.FS().ToMap(),
	}
	// Round-trip through JSON so gojq sees plain maps and strings.
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var input any
	if err := json.Unmarshal(raw, &input); err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	iter := query.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if qerr, isErr := v.(error); isErr {
			return fmt.Errorf("query: %w", qerr)
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
}

// envCredentials reads static credentials from the conventional variables.
func envCredentials(context.Context) (aws.Credentials, error) {
	id := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.Credentials{}, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
	}
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
	}, nil
}
