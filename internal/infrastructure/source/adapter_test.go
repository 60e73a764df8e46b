package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/erp/catalogsync/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDirectoryAdapter(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	tenantID := uuid.New()
	adapter := NewDirectoryAdapter(root, zaptest.NewLogger(t), WithDelimiter(';'))

	require.NoError(t, os.MkdirAll(filepath.Join(root, tenantID.String()), 0o755))
	require.NoError(t, os.WriteFile(
		adapter.Path(tenantID, syncrun.TableArticles),
		[]byte("codigo;descripcion\nA1;Tornillo\n"),
		0o644,
	))

	t.Run("reads the tenant table", func(t *testing.T) {
		rows, err := adapter.LoadRows(ctx, tenantID, syncrun.TableArticles)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Tornillo", rows[0].Fields["descripcion"])
	})

	t.Run("absent table is empty, not an error", func(t *testing.T) {
		rows, err := adapter.LoadRows(ctx, tenantID, syncrun.TableClients)
		require.NoError(t, err)
		assert.Empty(t, rows)

		rows, err = adapter.LoadRows(ctx, uuid.New(), syncrun.TableArticles)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("unconfigured root", func(t *testing.T) {
		_, err := NewDirectoryAdapter("", nil).LoadRows(ctx, tenantID, syncrun.TableArticles)
		assert.ErrorIs(t, err, syncrun.ErrSourceNotConfigured)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := adapter.LoadRows(cancelled, tenantID, syncrun.TableArticles)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("unreadable path is an error", func(t *testing.T) {
		// a directory where the file should be
		require.NoError(t, os.MkdirAll(adapter.Path(tenantID, syncrun.TableProviders), 0o755))
		_, err := adapter.LoadRows(ctx, tenantID, syncrun.TableProviders)
		assert.Error(t, err)
	})
}

type mockObjectGetter struct {
	mock.Mock
}

func (m *mockObjectGetter) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, aws.ToString(params.Bucket), aws.ToString(params.Key))
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func TestS3Adapter(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	key := "exports/" + tenantID.String() + "/articles.csv"

	t.Run("reads the object", func(t *testing.T) {
		client := new(mockObjectGetter)
		client.On("GetObject", ctx, "catalogs", key).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(strings.NewReader("code,description\nA1,Widget\n")),
		}, nil)

		adapter := NewS3AdapterWithClient(client, "catalogs", "/exports/", WithS3Logger(zaptest.NewLogger(t)))
		assert.Equal(t, key, adapter.Key(tenantID, syncrun.TableArticles))

		rows, err := adapter.LoadRows(ctx, tenantID, syncrun.TableArticles)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Widget", rows[0].Fields["description"])
		client.AssertExpectations(t)
	})

	t.Run("missing object is empty", func(t *testing.T) {
		client := new(mockObjectGetter)
		client.On("GetObject", ctx, "catalogs", key).Return(nil, &types.NoSuchKey{})

		rows, err := NewS3AdapterWithClient(client, "catalogs", "exports").LoadRows(ctx, tenantID, syncrun.TableArticles)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("transport failure is an error", func(t *testing.T) {
		client := new(mockObjectGetter)
		client.On("GetObject", ctx, "catalogs", key).Return(nil, errors.New("dial tcp: connection refused"))

		_, err := NewS3AdapterWithClient(client, "catalogs", "exports").LoadRows(ctx, tenantID, syncrun.TableArticles)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestNewS3Adapter_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewS3Adapter(ctx, nil)
	assert.Error(t, err)

	_, err = NewS3Adapter(ctx, &config.StorageConfig{Region: "us-east-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket is required")

	adapter, err := NewS3Adapter(ctx, &config.StorageConfig{
		Bucket:          "catalogs",
		Prefix:          "exports",
		Region:          "us-east-1",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "exports/00000000-0000-0000-0000-000000000000/clients.csv", adapter.Key(uuid.Nil, syncrun.TableClients))
}
