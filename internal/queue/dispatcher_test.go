package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"odenehouk/internal/models"
	"odenehouk/internal/repository"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakePublisher struct {
	published []Message
	fail      bool
	failIDs   map[string]bool
}

func (f *fakePublisher) Publish(_ context.Context, msg Message) error {
	if f.fail || f.failIDs[msg.ID] {
		return errors.New("broker down")
	}
	f.published = append(f.published, msg)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.OutboxEvent{}))
	return db
}

func TestDispatcher_PublishesAndMarks(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewOutboxRepository(db)
	pub := &fakePublisher{}
	d := &Dispatcher{Repo: repo, Publisher: pub, PollInterval: time.Millisecond, BatchSize: 10}

	evt, err := repo.Add("order.paid", "order-42", map[string]any{"order_id": 42})
	require.NoError(t, err)

	assert.Equal(t, 1, d.DispatchOnce(context.Background()))
	require.Len(t, pub.published, 1)
	assert.Equal(t, evt.ID, pub.published[0].ID)
	assert.Equal(t, "order-42", pub.published[0].AggregateID)
	assert.JSONEq(t, `{"order_id":42}`, string(pub.published[0].Payload))

	pending, err := repo.FindUnpublished(10, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.Equal(t, 0, d.DispatchOnce(context.Background()))
}

func TestDispatcher_KeepsFailedEvents(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewOutboxRepository(db)
	pub := &fakePublisher{fail: true}
	d := &Dispatcher{Repo: repo, Publisher: pub, PollInterval: time.Millisecond, BatchSize: 10}

	evt, err := repo.Add("order.refunded", "order-42", map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, 0, d.DispatchOnce(context.Background()))

	var row models.OutboxEvent
	require.NoError(t, db.First(&row, "id = ?", evt.ID).Error)
	assert.Nil(t, row.PublishedAt)
	assert.Equal(t, 1, row.Attempts)

	pub.fail = false
	assert.Equal(t, 1, d.DispatchOnce(context.Background()))
}

func TestDispatcher_HoldsBackAggregateAfterFailure(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewOutboxRepository(db)
	ctx := context.Background()

	paid, err := repo.Add("order.paid", "order-42", map[string]any{})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	refunded, err := repo.Add("order.refunded", "order-42", map[string]any{})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	other, err := repo.Add("order.paid", "order-43", map[string]any{})
	require.NoError(t, err)

	pub := &fakePublisher{failIDs: map[string]bool{paid.ID: true}}
	d := &Dispatcher{Repo: repo, Publisher: pub, PollInterval: time.Millisecond, BatchSize: 10, MaxAttempts: 5}

	assert.Equal(t, 1, d.DispatchOnce(ctx))
	require.Len(t, pub.published, 1)
	assert.Equal(t, other.ID, pub.published[0].ID)

	var row models.OutboxEvent
	require.NoError(t, db.First(&row, "id = ?", refunded.ID).Error)
	assert.Nil(t, row.PublishedAt)
	assert.Equal(t, 0, row.Attempts)

	pub.failIDs = nil
	assert.Equal(t, 2, d.DispatchOnce(ctx))
	require.Len(t, pub.published, 3)
	assert.Equal(t, paid.ID, pub.published[1].ID)
	assert.Equal(t, refunded.ID, pub.published[2].ID)
}

func TestDispatcher_ParksAfterMaxAttempts(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewOutboxRepository(db)
	pub := &fakePublisher{fail: true}
	d := &Dispatcher{Repo: repo, Publisher: pub, PollInterval: time.Millisecond, BatchSize: 10, MaxAttempts: 3}
	ctx := context.Background()

	evt, err := repo.Add("order.paid", "order-42", map[string]any{})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		d.DispatchOnce(ctx)
	}

	var row models.OutboxEvent
	require.NoError(t, db.First(&row, "id = ?", evt.ID).Error)
	assert.Equal(t, 3, row.Attempts)
	assert.Nil(t, row.PublishedAt)

	pending, err := repo.FindUnpublished(10, 3)
	require.NoError(t, err)
	assert.Empty(t, pending)

	pending, err = repo.FindUnpublished(10, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	pub.fail = false
	assert.Equal(t, 0, d.DispatchOnce(ctx))
	assert.Empty(t, pub.published)
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewOutboxRepository(db)
	pub := &fakePublisher{}
	d := &Dispatcher{Repo: repo, Publisher: pub, PollInterval: 5 * time.Millisecond, BatchSize: 10}
	_, err := repo.Add("order.failed", "order-1", map[string]any{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		var n int64
		db.Model(&models.OutboxEvent{}).Where("published_at IS NOT NULL").Count(&n)
		return n == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

type fakeWriter struct {
	msgs []kafka.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_KeysByAggregate(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{w: w}

	require.NoError(t, p.Publish(context.Background(), Message{ID: "e1", Type: "order.paid", AggregateID: "order-42", Payload: []byte(`{}`)}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "order-42", string(w.msgs[0].Key))
	assert.Equal(t, "order.paid", string(w.msgs[0].Headers[1].Value))
}
