package transfer

import (
	"bufio"
	"bytes"
	"fmt"
	"math/rand"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinfed/open-bus/config"
)

// mockServer is a minimal scripted FTP server serving files from memory.
// It speaks just enough of the protocol for the client's anonymous login,
// EPSV data connections, SIZE, RETR and LIST.
type mockServer struct {
	t        *testing.T
	listener net.Listener
	files    map[string][]byte
}

func newMockServer(t *testing.T, files map[string][]byte) *mockServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &mockServer{t: t, listener: listener, files: files}
	go s.serve()
	t.Cleanup(func() { listener.Close() })

	return s
}

// endpoint returns an Endpoint pointing at the mock server.
func (s *mockServer) endpoint() config.Endpoint {
	addr := s.listener.Addr().(*net.TCPAddr)
	return config.Endpoint{
		Host:       "127.0.0.1",
		Port:       addr.Port,
		RemoteFile: config.DefaultRemoteFile,
		Timeout:    5 * time.Second,
	}
}

func (s *mockServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *mockServer) handle(conn net.Conn) {
	defer conn.Close()

	var dataListener net.Listener
	defer func() {
		if dataListener != nil {
			dataListener.Close()
		}
	}()

	fmt.Fprintf(conn, "220 mock FTP server ready.\r\n")
	reader := bufio.NewReader(conn)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")

		switch strings.ToUpper(cmd) {
		case "USER":
			fmt.Fprintf(conn, "331 Please specify the password.\r\n")
		case "PASS":
			fmt.Fprintf(conn, "230 Login successful.\r\n")
		case "FEAT":
			fmt.Fprintf(conn, "500 Unknown command.\r\n")
		case "TYPE":
			fmt.Fprintf(conn, "200 Switching to Binary mode.\r\n")
		case "SIZE":
			if data, ok := s.files[arg]; ok {
				fmt.Fprintf(conn, "213 %d\r\n", len(data))
			} else {
				fmt.Fprintf(conn, "550 Could not get file size.\r\n")
			}
		case "EPSV":
			dataListener, err = net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				fmt.Fprintf(conn, "425 Can't open data connection.\r\n")
				continue
			}
			port := dataListener.Addr().(*net.TCPAddr).Port
			fmt.Fprintf(conn, "229 Entering Extended Passive Mode (|||%d|)\r\n", port)
		case "RETR":
			data, ok := s.files[arg]
			if !ok {
				fmt.Fprintf(conn, "550 Failed to open file.\r\n")
				continue
			}
			fmt.Fprintf(conn, "150 Opening BINARY mode data connection.\r\n")
			s.sendData(dataListener, data)
			dataListener = nil
			fmt.Fprintf(conn, "226 Transfer complete.\r\n")
		case "LIST":
			fmt.Fprintf(conn, "150 Here comes the directory listing.\r\n")
			var buf bytes.Buffer
			for name, data := range s.files {
				fmt.Fprintf(&buf, "-rw-r--r-- 1 ftp ftp %d Jan 01 12:00 %s\r\n", len(data), name)
			}
			s.sendData(dataListener, buf.Bytes())
			dataListener = nil
			fmt.Fprintf(conn, "226 Directory send OK.\r\n")
		case "QUIT":
			fmt.Fprintf(conn, "221 Goodbye.\r\n")
			return
		default:
			fmt.Fprintf(conn, "200 OK.\r\n")
		}
	}
}

// sendData accepts the pending data connection, writes the payload and
// closes the connection so the client sees EOF.
func (s *mockServer) sendData(listener net.Listener, data []byte) {
	if listener == nil {
		return
	}
	defer listener.Close()

	listener.(*net.TCPListener).SetDeadline(time.Now().Add(5 * time.Second))
	dconn, err := listener.Accept()
	if err != nil {
		return
	}
	defer dconn.Close()
	dconn.Write(data)
}

// randomPayload builds a deterministic pseudo-random byte payload so the
// round trip test covers arbitrary binary content.
func randomPayload(t *testing.T, size int) []byte {
	t.Helper()
	payload := make([]byte, size)
	rng := rand.New(rand.NewSource(42))
	_, err := rng.Read(payload)
	require.NoError(t, err)
	return payload
}

func TestFetchToRoundTrip(t *testing.T) {
	payload := randomPayload(t, 256*1024)
	server := newMockServer(t, map[string][]byte{
		config.DefaultRemoteFile: payload,
	})

	dest := filepath.Join(t.TempDir(), "gtfs.zip")
	fetcher := NewFetcher(server.endpoint())

	err := fetcher.FetchTo(dest)
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got, "downloaded bytes must match the served file")
}

func TestFetchCreatesTempFile(t *testing.T) {
	payload := randomPayload(t, 64*1024)
	server := newMockServer(t, map[string][]byte{
		config.DefaultRemoteFile: payload,
	})

	fetcher := NewFetcher(server.endpoint())

	path, err := fetcher.Fetch()
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(path) })

	base := filepath.Base(path)
	assert.True(t, strings.HasPrefix(base, "gtfs-"), "temp file name: %s", base)
	assert.True(t, strings.HasSuffix(base, ".zip"), "temp file name: %s", base)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFetchToConnectionRefused(t *testing.T) {
	// Grab a free port and close it again so the dial is refused.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	dest := filepath.Join(t.TempDir(), "gtfs.zip")
	fetcher := NewFetcher(config.Endpoint{
		Host:       "127.0.0.1",
		Port:       port,
		RemoteFile: config.DefaultRemoteFile,
		Timeout:    2 * time.Second,
	})

	err = fetcher.FetchTo(dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect")

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "destination must not be written on connect failure")
}

func TestFetchToMissingRemoteFile(t *testing.T) {
	server := newMockServer(t, map[string][]byte{
		"other.zip": []byte("unrelated"),
	})

	// A pre-existing destination must keep its content when the server
	// rejects the RETR request.
	dest := filepath.Join(t.TempDir(), "gtfs.zip")
	stale := []byte("previous download")
	require.NoError(t, os.WriteFile(dest, stale, 0644))

	endpoint := server.endpoint()
	endpoint.RemoteFile = "missing.zip"
	fetcher := NewFetcher(endpoint)

	err := fetcher.FetchTo(dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.zip")

	got, readErr := os.ReadFile(dest)
	require.NoError(t, readErr)
	assert.Equal(t, stale, got, "destination must be untouched when RETR is rejected")
}

func TestFetchToHonorsRemoteFileOverride(t *testing.T) {
	payload := []byte("cluster to line mapping")
	server := newMockServer(t, map[string][]byte{
		"ClusterToLine.zip": payload,
	})

	endpoint := server.endpoint()
	endpoint.RemoteFile = "ClusterToLine.zip"

	dest := filepath.Join(t.TempDir(), "clusters.zip")
	require.NoError(t, NewFetcher(endpoint).FetchTo(dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestListRemoteDirectory(t *testing.T) {
	server := newMockServer(t, map[string][]byte{
		config.DefaultRemoteFile: randomPayload(t, 2048),
		"TripIdToDate.zip":       []byte("trip dates"),
	})

	entries, err := NewFetcher(server.endpoint()).List()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	names := make(map[string]uint64)
	for _, entry := range entries {
		names[entry.Name] = entry.Size
	}
	assert.Equal(t, uint64(2048), names[config.DefaultRemoteFile])
	assert.Equal(t, uint64(len("trip dates")), names["TripIdToDate.zip"])
}
