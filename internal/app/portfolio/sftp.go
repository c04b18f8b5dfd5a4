package portfolio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"path"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const defaultSFTPPort = 22

// SFTPSource downloads images from an SFTP directory using credentials supplied per request.
type SFTPSource struct {
	hostKeyCallback ssh.HostKeyCallback
	dialTimeout     time.Duration
}

// NewSFTPSource builds an SFTP source. When knownHostsPath is empty, host keys are not verified.
func NewSFTPSource(knownHostsPath string, dialTimeout time.Duration) (*SFTPSource, error) {
	callback := ssh.InsecureIgnoreHostKey()

	if knownHostsPath != "" {
		cb, err := knownhosts.New(knownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load known_hosts %s: %w", knownHostsPath, err)
		}
		callback = cb
	}

	return &SFTPSource{
		hostKeyCallback: callback,
		dialTimeout:     dialTimeout,
	}, nil
}

// Fetch connects, lists req.Directory, and downloads every image file in it.
func (s *SFTPSource) Fetch(ctx context.Context, req Request) ([]Item, error) {
	if req.Host == "" || req.Username == "" {
		return nil, errors.New("sftp host and username are required")
	}

	port := req.Port
	if port == 0 {
		port = defaultSFTPPort
	}
	addr := net.JoinHostPort(req.Host, strconv.Itoa(port))

	dialer := net.Dialer{Timeout: s.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	// Closing the raw connection unblocks the handshake and every later read once ctx is done.
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, &ssh.ClientConfig{
		User:            req.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(req.Password)},
		HostKeyCallback: s.hostKeyCallback,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("ssh handshake with %s: %w", addr, ctxErr)
		}
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}

	sshClient := ssh.NewClient(sshConn, chans, reqs)
	defer sshClient.Close()

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		return nil, fmt.Errorf("open sftp subsystem: %w", err)
	}
	defer client.Close()

	return collect(ctx, client, req.Directory)
}

// collect downloads the image files of dir in name order.
func collect(ctx context.Context, client *sftp.Client, dir string) ([]Item, error) {
	if dir == "" {
		dir = "."
	}

	entries, err := client.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(items) >= MaxItems {
			break
		}
		if !entry.Mode().IsRegular() || entry.Size() > MaxImageSize {
			continue
		}

		mimeType, ok := ImageMIME(entry.Name())
		if !ok {
			continue
		}

		data, err := readFile(client, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		items = append(items, Item{
			FileName: entry.Name(),
			MimeType: mimeType,
			Data:     data,
		})
	}

	return items, nil
}

func readFile(client *sftp.Client, name string) ([]byte, error) {
	f, err := client.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	return data, nil
}
