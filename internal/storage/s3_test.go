package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeS3 keeps objects in memory and pages ListObjectsV2 one prefix at a time.
type fakeS3 struct {
	objects map[string][]byte
	puts    []string
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	prefix := aws.ToString(in.Prefix)
	delim := aws.ToString(in.Delimiter)
	set := map[string]struct{}{}
	for k := range f.objects {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := strings.TrimPrefix(k, prefix)
		if i := strings.Index(rest, delim); delim != "" && i >= 0 {
			set[prefix+rest[:i+1]] = struct{}{}
		}
	}
	var all []string
	for p := range set {
		all = append(all, p)
	}
	sort.Strings(all)

	start := 0
	if in.ContinuationToken != nil {
		for i, p := range all {
			if p == *in.ContinuationToken {
				start = i
			}
		}
	}
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	if start < len(all) {
		out.CommonPrefixes = []types.CommonPrefix{{Prefix: aws.String(all[start])}}
		if start+1 < len(all) {
			out.IsTruncated = aws.Bool(true)
			out.NextContinuationToken = aws.String(all[start+1])
		}
	}
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = b
	f.puts = append(f.puts, aws.ToString(in.ContentType))
	return &s3.PutObjectOutput{}, nil
}

func TestS3ListCommonPrefixesAcrossPages(t *testing.T) {
	fake := newFakeS3()
	fake.objects["decorations/types.json"] = []byte("[]")
	fake.objects["decorations/default/mask.png"] = nil
	fake.objects["decorations/santa/decoration.png"] = nil
	fake.objects["decorations/santa/config.json"] = nil
	fake.objects["other/ignored/mask.png"] = nil

	b := newS3WithClient(fake, "art", "decorations")
	got, err := b.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"default", "santa"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List = %v, want %v", got, want)
	}
}

func TestS3ReadWriteExists(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	b := newS3WithClient(fake, "art", "decorations/")

	if _, err := b.Read(ctx, "santa/mask.png"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Read missing: want ErrNotExist, got %v", err)
	}
	if ok, err := b.Exists(ctx, "santa/mask.png"); err != nil || ok {
		t.Fatalf("Exists missing = %v, %v", ok, err)
	}
	if err := b.Write(ctx, "santa/mask.png", []byte("png")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, ok := fake.objects["decorations/santa/mask.png"]; !ok {
		t.Fatal("object not stored under prefix")
	}
	if fake.puts[0] != "image/png" {
		t.Errorf("content type = %q", fake.puts[0])
	}
	if ok, err := b.Exists(ctx, "santa/mask.png"); err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	got, err := b.Read(ctx, "santa/mask.png")
	if err != nil || string(got) != "png" {
		t.Fatalf("Read = %q, %v", got, err)
	}
}
