package exportstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/smithy-go"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/canvasml/studio/pkg/vfs"
)

// fakeS3 is an in-memory S3Client.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey"}
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.objects[*in.Key] = data
	f.mu.Unlock()
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *awss3.DeleteObjectInput, _ ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
	f.mu.Lock()
	delete(f.objects, *in.Key)
	f.mu.Unlock()
	return &awss3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *awss3.HeadObjectInput, _ ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[*in.Key]; !ok {
		return nil, &smithy.GenericAPIError{Code: "NotFound"}
	}
	return &awss3.HeadObjectOutput{}, nil
}

func sampleFS() *vfs.FS {
	fs := vfs.New()
	fs.Create("/src/main.tsx", "render()", nil)
	fs.Create("/index.html", "<p>hi</p>", nil)
	return fs
}

func TestExport_LocalWithManifest(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sink, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	n, err := Export(ctx, sink, sampleFS(), &Manifest{
		Name:         "Demo",
		Dependencies: map[string]string{"react": "18.2.0"},
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if n != 2 {
		t.Errorf("exported %d files, want 2", n)
	}

	got, err := os.ReadFile(filepath.Join(dir, "src", "main.tsx"))
	if err != nil {
		t.Fatalf("reading exported file: %v", err)
	}
	if string(got) != "render()" {
		t.Errorf("content = %q", got)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("manifest json: %v", err)
	}
	if m.Name != "Demo" || m.FileCount != 2 || m.ExportedAt.IsZero() {
		t.Errorf("manifest = %+v", m)
	}
}

func TestExport_S3WithPrefix(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	sink := NewS3(client, "bucket", "projects/demo")

	if _, err := Export(ctx, sink, sampleFS(), nil); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if got := string(client.objects["projects/demo/src/main.tsx"]); got != "render()" {
		t.Errorf("object = %q", got)
	}
	if _, ok := client.objects["projects/demo/manifest.json"]; ok {
		t.Error("nil manifest should not be written")
	}
}

func TestLocal_ReadDeleteExists(t *testing.T) {
	ctx := context.Background()
	sink, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	w, err := sink.Write(ctx, "a/b.txt")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := w.Write([]byte("data")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	ok, err := sink.Exists(ctx, "a/b.txt")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	r, err := sink.Read(ctx, "a/b.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	data, _ := io.ReadAll(r)
	r.Close()
	if string(data) != "data" {
		t.Errorf("read back %q", data)
	}

	if err := sink.Delete(ctx, "a/b.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	// Idempotent delete.
	if err := sink.Delete(ctx, "a/b.txt"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
	if ok, _ := sink.Exists(ctx, "a/b.txt"); ok {
		t.Error("file still exists after delete")
	}
}

func TestS3_ReadMissingWrapsNotExist(t *testing.T) {
	sink := NewS3(newFakeS3(), "bucket", "")
	_, err := sink.Read(context.Background(), "missing.txt")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestS3_RoundTrip(t *testing.T) {
	ctx := context.Background()
	sink := NewS3(newFakeS3(), "bucket", "")

	w, err := sink.Write(ctx, "x.txt")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := w.Write([]byte("payload")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	ok, err := sink.Exists(ctx, "x.txt")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	r, err := sink.Read(ctx, "x.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	data, _ := io.ReadAll(r)
	r.Close()
	if string(data) != "payload" {
		t.Errorf("read back %q", data)
	}
	if err := sink.Delete(ctx, "x.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := sink.Exists(ctx, "x.txt"); ok {
		t.Error("object still exists after delete")
	}
}
