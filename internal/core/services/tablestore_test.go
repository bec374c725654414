package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/troubleshoot/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/troubleshoot/internal/core/domain"
)

func faultRows() []domain.Row {
	return []domain.Row{
		{{Column: "code", Value: "E101"}, {Column: "desc", Value: "motor overheat"}},
		{{Column: "code", Value: "E202"}, {Column: "desc", Value: "PLC watchdog timeout"}},
	}
}

func TestTableStore_SearchFlattensRows(t *testing.T) {
	store := NewTableStore(nil)
	require.NoError(t, store.IngestTable(context.Background(), "faults.csv", faultRows()[:1]))

	results := store.Search("overheat")

	assert.Equal(t, []string{"code: E101 | desc: motor overheat"}, results)
}

func TestTableStore_SearchIsCaseInsensitive(t *testing.T) {
	store := NewTableStore(nil)
	require.NoError(t, store.IngestTable(context.Background(), "faults.csv", faultRows()))

	assert.Equal(t, []string{"code: E202 | desc: PLC watchdog timeout"}, store.Search("plc"))
	assert.Equal(t, []string{"code: E101 | desc: motor overheat"}, store.Search("MOTOR"))
}

func TestTableStore_SearchAnyTokenInStorageOrder(t *testing.T) {
	store := NewTableStore(nil)
	require.NoError(t, store.IngestTable(context.Background(), "faults.csv", faultRows()))

	results := store.Search("watchdog overheat")

	assert.Equal(t, []string{
		"code: E101 | desc: motor overheat",
		"code: E202 | desc: PLC watchdog timeout",
	}, results)
}

func TestTableStore_SearchMatchesSubstrings(t *testing.T) {
	store := NewTableStore(nil)
	require.NoError(t, store.IngestTable(context.Background(), "faults.csv", faultRows()))

	// "code" appears in every flattened row as a column name
	assert.Len(t, store.Search("code"), 2)
	assert.Len(t, store.Search("heat"), 1)
}

func TestTableStore_EmptyQuery(t *testing.T) {
	store := NewTableStore(nil)
	require.NoError(t, store.IngestTable(context.Background(), "faults.csv", faultRows()))

	assert.Empty(t, store.Search(""))
	assert.Empty(t, store.Search("   "))
	assert.NotNil(t, store.Search(""))
}

func TestTableStore_PoolsTablesAndAppendsOnReingest(t *testing.T) {
	ctx := context.Background()
	store := NewTableStore(nil)
	require.NoError(t, store.IngestTable(ctx, "faults.csv", faultRows()))
	require.NoError(t, store.IngestTable(ctx, "alarms.csv", []domain.Row{
		{{Column: "alarm", Value: "A7"}, {Column: "action", Value: "check motor fan"}},
	}))
	require.NoError(t, store.IngestTable(ctx, "faults.csv", faultRows()[:1]))

	assert.Equal(t, 4, store.Len())
	matches := store.Matches("motor")
	require.Len(t, matches, 3)
	assert.Equal(t, "faults.csv", matches[0].Source)
	assert.Equal(t, "alarms.csv", matches[1].Source)
	assert.Equal(t, 3, matches[2].Position)
}

func TestTableStore_SkipsEmptyRows(t *testing.T) {
	store := NewTableStore(nil)
	require.NoError(t, store.IngestTable(context.Background(), "t.csv", []domain.Row{{}, faultRows()[0], nil}))

	assert.Equal(t, 1, store.Len())
}

func TestTableStore_SnapshotsAndRestore(t *testing.T) {
	ctx := context.Background()
	snapshots := memory.NewSnapshotStore()
	store := NewTableStore(snapshots)
	require.NoError(t, store.IngestTable(ctx, "faults.csv", faultRows()))

	restored := NewTableStore(snapshots)
	n, err := restored.Restore(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, store.Rows(), restored.Rows())
	assert.Equal(t, []string{"code: E101 | desc: motor overheat"}, restored.Search("overheat"))
}

func TestTableStore_SnapshotFailureDoesNotFailIngest(t *testing.T) {
	store := NewTableStore(failingSnapshots{})

	require.NoError(t, store.IngestTable(context.Background(), "faults.csv", faultRows()))
	assert.Equal(t, 2, store.Len())

	_, err := store.Restore(context.Background())
	assert.ErrorIs(t, err, errBackendDown)
}

// slowSnapshots delays row appends to widen the window between the
// in-memory append and the snapshot write.
type slowSnapshots struct {
	*memory.SnapshotStore
}

func (s slowSnapshots) AppendTableRows(ctx context.Context, rows []domain.TableRow) error {
	time.Sleep(time.Duration(len(rows[0].Source)%3) * time.Millisecond)
	return s.SnapshotStore.AppendTableRows(ctx, rows)
}

func TestTableStore_ConcurrentIngestKeepsSnapshotOrder(t *testing.T) {
	ctx := context.Background()
	snapshots := slowSnapshots{memory.NewSnapshotStore()}
	store := NewTableStore(snapshots)

	var wg sync.WaitGroup
	for i := range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			source := fmt.Sprintf("%s.csv", strings.Repeat("t", i+1))
			assert.NoError(t, store.IngestTable(ctx, source, faultRows()))
		}()
	}
	wg.Wait()

	restored := NewTableStore(snapshots)
	n, err := restored.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Len(), n)
	assert.Equal(t, store.Rows(), restored.Rows())
}
