// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package packages_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectomedb/cdb-cli-sdk/sdk/config"
	"github.com/connectomedb/cdb-cli-sdk/sdk/services/packages"
	"github.com/connectomedb/cdb-cli-sdk/sdk/utils"
)

func TestMain(m *testing.M) {
	utils.LogOutput = io.Discard
	os.Exit(m.Run())
}

type recorded struct {
	method string
	uri    string
	user   string
}

type fakeArchive struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recorded
}

// newFakeArchive serves handler under /spring and records every request.
func newFakeArchive(t *testing.T, handler http.HandlerFunc) *fakeArchive {
	t.Helper()
	fa := &fakeArchive{}
	fa.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, _ := r.BasicAuth()
		fa.mu.Lock()
		fa.requests = append(fa.requests, recorded{r.Method, r.URL.RequestURI(), user})
		fa.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(fa.Close)
	return fa
}

func (fa *fakeArchive) last() recorded {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	return fa.requests[len(fa.requests)-1]
}

// fakeAscp writes a script that prints its arguments and the cookie.
func fakeAscp(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ascp")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func newService(t *testing.T, fa *fakeArchive, env map[string]string) *packages.PackagesService {
	t.Helper()
	conf := config.Config{
		Core: config.CoreConfig{
			BaseURL:           fa.URL,
			PathPrefix:        "/spring",
			BasicAuthUsername: "ana",
			BasicAuthPassword: "pw",
		},
		Aspera: config.AsperaConfig{ClientVersion: "9.9.9"},
	}
	svc, err := packages.NewPackagesService(context.Background(), conf, func(k string) string { return env[k] })
	require.NoError(t, err)
	return svc
}

const specBody = `{
  "direction": "receive",
  "remote_host": "aspera.example.org",
  "remote_user": "hcpaspera",
  "ssh_port": 33001,
  "token": "tok",
  "paths": [{"source": "/HCP/100307/a.zip"}, {"source": "/HCP/100307/a.zip.md5"}]
}`

func TestNewPackagesServiceRequiresEndpoint(t *testing.T) {
	_, err := packages.NewPackagesService(context.Background(), config.Config{}, nil)
	assert.ErrorIs(t, err, utils.ErrConfiguration)
}

func TestGetTransferSpec(t *testing.T) {
	fa := newFakeArchive(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, specBody)
	})
	svc := newService(t, fa, nil)

	spec, err := svc.GetTransferSpec(context.Background(), []string{"100307", "100408"}, "3T_Structural_preproc", "/data")
	require.NoError(t, err)
	assert.Len(t, spec.Paths, 2)
	assert.Equal(t, "aspera.example.org", spec.Params["remote_host"])

	req := fa.last()
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/spring/download?subjects=100307,100408&package=3T_Structural_preproc&destination=/data", req.uri)
	assert.Equal(t, "ana", req.user)
}

func TestGetTransferSpecErrors(t *testing.T) {
	t.Run("http status", func(t *testing.T) {
		fa := newFakeArchive(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"message":"no access to HCP_1200"}`)
		})
		_, err := newService(t, fa, nil).GetTransferSpec(context.Background(), "100307", nil, "")
		assert.ErrorIs(t, err, utils.ErrTransport)
		assert.Contains(t, err.Error(), "no access to HCP_1200")
		assert.Contains(t, err.Error(), "status 403")
	})
	t.Run("not json", func(t *testing.T) {
		fa := newFakeArchive(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "<html>login</html>")
		})
		_, err := newService(t, fa, nil).GetTransferSpec(context.Background(), "100307", nil, "")
		assert.ErrorIs(t, err, utils.ErrProtocol)
	})
	t.Run("path without source", func(t *testing.T) {
		fa := newFakeArchive(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"paths":[{"destination":"x"}]}`)
		})
		_, err := newService(t, fa, nil).GetTransferSpec(context.Background(), "100307", nil, "")
		assert.ErrorIs(t, err, utils.ErrProtocol)
	})
	t.Run("unreachable", func(t *testing.T) {
		fa := newFakeArchive(t, func(http.ResponseWriter, *http.Request) {})
		svc := newService(t, fa, nil)
		fa.Close()
		_, err := svc.GetTransferSpec(context.Background(), "100307", nil, "")
		assert.ErrorIs(t, err, utils.ErrTransport)
	})
}

func TestPlan(t *testing.T) {
	fa := newFakeArchive(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, specBody)
	})
	svc := newService(t, fa, map[string]string{"HOME": "/home/ana"})

	spec, argv, err := svc.Plan(context.Background(), packages.DownloadRequest{Subjects: "100307"})
	require.NoError(t, err)
	require.NotNil(t, spec)

	prefix := "/home/ana/.aspera/connect"
	if strings.Contains(argv[0], "Aspera Connect.app") {
		prefix = "/home/ana/Applications/Aspera Connect.app/Contents/Resources"
		assert.Equal(t, prefix+"/ascp", argv[0])
	} else {
		assert.Equal(t, prefix+"/bin/ascp", argv[0])
	}
	assert.Equal(t, []string{
		"-p", "-i", argv[3],
		"--user=hcpaspera",
		"-P", "33001",
		"--host=aspera.example.org",
		"-W", "tok",
		"--mode=recv",
		"/HCP/100307/a.zip", "/HCP/100307/a.zip.md5",
		".",
	}, argv[1:])
	assert.True(t, strings.HasSuffix(argv[3], "/asperaweb_id_dsa.openssh"))
}

func TestPlanRejectsSend(t *testing.T) {
	fa := newFakeArchive(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"direction":"send","paths":[{"source":"/a"}]}`)
	})
	svc := newService(t, fa, map[string]string{"HOME": "/home/ana"})
	_, argv, err := svc.Plan(context.Background(), packages.DownloadRequest{Subjects: "100307"})
	assert.ErrorIs(t, err, utils.ErrUnsupportedOperation)
	assert.Nil(t, argv)
}

func TestDownload(t *testing.T) {
	fa := newFakeArchive(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, specBody)
	})
	ascp := fakeAscp(t, `echo "$@"; echo "$ASPERA_SCP_COOKIE"`)
	svc := newService(t, fa, map[string]string{
		"ASCP":          ascp,
		"ASPERA_ETCDIR": "/etc/aspera",
		"ASPERA_BINDIR": filepath.Dir(ascp),
	})

	res, err := svc.Download(context.Background(), packages.DownloadRequest{
		Subjects:    []packages.Subject{{ID: "HCP_S1", Name: "100307"}},
		Packages:    []string{"3T_Structural_preproc"},
		Destination: "/scratch/hcp",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, ascp, res.Command[0])

	assert.Contains(t, res.Command, "****")
	assert.NotContains(t, res.Command, "tok")

	lines := strings.Split(strings.TrimSpace(res.Output), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "-p -i /etc/aspera/asperaweb_id_dsa.openssh --user=hcpaspera -P 33001 --host=aspera.example.org -W tok --mode=recv /HCP/100307/a.zip /HCP/100307/a.zip.md5 .", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "XDATUser=ana;User-Agent=pyxnat 9.9.9/"), lines[1])

	assert.Equal(t, "/spring/download?subjects=100307&package=3T_Structural_preproc&destination=/scratch/hcp", fa.last().uri)
}

func TestDownloadTransferFailed(t *testing.T) {
	fa := newFakeArchive(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, specBody)
	})
	ascp := fakeAscp(t, `echo "ascp: failed to authenticate" >&2; exit 5`)
	svc := newService(t, fa, map[string]string{"ASCP": ascp, "ASPERA_ETCDIR": "/etc/aspera", "ASPERA_BINDIR": "/opt"})

	res, err := svc.Download(context.Background(), packages.DownloadRequest{Subjects: "100307"})
	assert.Nil(t, res)
	var tf *utils.TransferFailedError
	require.True(t, errors.As(err, &tf))
	assert.Equal(t, 5, tf.ExitCode)
	assert.Contains(t, string(tf.Output), "failed to authenticate")
}

func TestForSubjects(t *testing.T) {
	fa := newFakeArchive(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"subjects":[{"id":"100307","packages":[{"id":"3T_Structural_preproc","count":12,"size":1048576}]}]}`)
	})
	svc := newService(t, fa, nil)

	doc, err := svc.ForSubjects(context.Background(), []string{"100307"}, nil)
	require.NoError(t, err)
	assert.Contains(t, doc, "subjects")
	assert.Equal(t, "/spring/download?subjects=100307&view=packages", fa.last().uri)

	_, err = svc.ForSubjects(context.Background(), []string{"100307"}, []string{"3T_Structural_preproc"})
	require.NoError(t, err)
	assert.Equal(t, "/spring/download?subjects=100307&package=3T_Structural_preproc&view=subjects", fa.last().uri)
	assert.Equal(t, http.MethodPost, fa.last().method)
}

func TestList(t *testing.T) {
	fa := newFakeArchive(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"packages":[{"id":"3T_Structural_preproc","description":"Structural"},{"id":"7T_MOVIE_preproc"}]}`)
	})
	pkgs, err := newService(t, fa, nil).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"3T_Structural_preproc", "7T_MOVIE_preproc"}, packages.IDs(pkgs))
	assert.Equal(t, "Structural", pkgs[0].Description)
	assert.Equal(t, recorded{http.MethodGet, "/spring/download", "ana"}, fa.last())
}

func TestDownloadWarnsWithoutArchiveUser(t *testing.T) {
	fa := newFakeArchive(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, specBody)
	})
	ascp := fakeAscp(t, `echo "$ASPERA_SCP_COOKIE"`)
	env := map[string]string{"ASCP": ascp, "ASPERA_ETCDIR": "/etc/aspera", "ASPERA_BINDIR": "/opt"}
	conf := config.Config{Core: config.CoreConfig{BaseURL: fa.URL, PathPrefix: "/spring", SessionID: "JSESSION"}}
	svc, err := packages.NewPackagesService(context.Background(), conf, func(k string) string { return env[k] })
	require.NoError(t, err)

	var logs bytes.Buffer
	utils.LogOutput = &logs
	defer func() { utils.LogOutput = io.Discard }()

	res, err := svc.Download(context.Background(), packages.DownloadRequest{Subjects: "100307"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Output, "XDATUser=;"), res.Output)
	assert.Contains(t, logs.String(), "[WARN] No archive user configured (cdb_user)")
	assert.Empty(t, fa.last().user)
}
