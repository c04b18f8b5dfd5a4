package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeSource struct {
	items []Item
	err   error
	block bool
	got   Request
}

func (f *fakeSource) Fetch(ctx context.Context, req Request) ([]Item, error) {
	f.got = req
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.items, f.err
}

func TestServiceFetchDefaultsToSFTP(t *testing.T) {
	src := &fakeSource{items: []Item{{FileName: "a.png", MimeType: "image/png", Data: []byte{1}}}}
	svc := NewService(time.Second)
	svc.Register(SourceSFTP, src)

	items := svc.Fetch(context.Background(), Request{Host: "files.example", Directory: "/art"})
	if len(items) != 1 || items[0].FileName != "a.png" {
		t.Fatalf("items = %+v", items)
	}
	if src.got.Host != "files.example" {
		t.Fatalf("source received %+v", src.got)
	}
}

func TestServiceFetchDegradesToEmpty(t *testing.T) {
	cases := map[string]struct {
		src Source
		req Request
	}{
		"source error":   {&fakeSource{err: errors.New("auth failed")}, Request{}},
		"unknown source": {&fakeSource{}, Request{Source: "ftp"}},
		"nil items":      {&fakeSource{}, Request{}},
		"timeout":        {&fakeSource{block: true}, Request{}},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewService(20 * time.Millisecond)
			svc.Register(SourceSFTP, tc.src)

			items := svc.Fetch(context.Background(), tc.req)
			if items == nil {
				t.Fatal("expected non-nil empty slice")
			}
			if len(items) != 0 {
				t.Fatalf("expected no items, got %d", len(items))
			}
		})
	}
}

func TestImageMIME(t *testing.T) {
	cases := map[string]string{
		"cat.PNG":     "image/png",
		"dog.jpeg":    "image/jpeg",
		"x/y/z.webp":  "image/webp",
		"anim.gif":    "image/gif",
		"notes.txt":   "",
		"no_ext":      "",
		"trailing.":   "",
		"archive.jpg": "image/jpeg",
	}

	for name, want := range cases {
		got, ok := ImageMIME(name)
		if ok != (want != "") || got != want {
			t.Errorf("ImageMIME(%q) = (%q, %v), want %q", name, got, ok, want)
		}
	}
}
