// Package chatstore owns the chat rooms, messages and listings for the
// lifetime of the process. Data lives in a private in-memory SQLite database
// seeded from the catalog; nothing is written to disk.
package chatstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/saravenpi/bazaar/internal/catalog"
	"github.com/saravenpi/bazaar/internal/models"
	"github.com/saravenpi/bazaar/internal/timeline"
)

var (
	ErrRoomNotFound    = errors.New("chat room not found")
	ErrProductNotFound = errors.New("product not found")
	ErrEmptyMessage    = errors.New("message text cannot be empty")
)

// CategoryAll is the category tab that lists every product.
const CategoryAll = "Popular"

type Filter int

const (
	FilterAll Filter = iota
	FilterUnread
)

func (f Filter) String() string {
	if f == FilterUnread {
		return "Unread chats"
	}
	return "All chats"
}

// Toggle flips between the two list filters.
func (f Filter) Toggle() Filter {
	if f == FilterUnread {
		return FilterAll
	}
	return FilterUnread
}

const schema = `
	CREATE TABLE room (
		id                TEXT PRIMARY KEY,
		seq               INTEGER NOT NULL,
		participant_id    TEXT NOT NULL,
		participant_name  TEXT NOT NULL,
		participant_image TEXT NOT NULL DEFAULT '',
		product_id        TEXT,
		product_title     TEXT NOT NULL DEFAULT '',
		product_price     TEXT NOT NULL DEFAULT '',
		product_image     TEXT NOT NULL DEFAULT '',
		product_status    TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE message (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL,
		room_id    TEXT NOT NULL,
		text       TEXT NOT NULL,
		mine       INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		is_read    INTEGER,
		UNIQUE (room_id, id)
	);
	CREATE INDEX message_room ON message (room_id, created_at);
	CREATE TABLE product (
		seq         INTEGER NOT NULL,
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		price       TEXT NOT NULL,
		location    TEXT NOT NULL,
		category    TEXT NOT NULL DEFAULT '',
		posted_at   INTEGER NOT NULL,
		image       TEXT NOT NULL DEFAULT '',
		liked       INTEGER NOT NULL DEFAULT 0,
		chat_count  INTEGER NOT NULL DEFAULT 0,
		seller_id   TEXT NOT NULL DEFAULT '',
		seller_name TEXT NOT NULL DEFAULT ''
	);
`

// roomSelect yields one row per room with its newest message (ties go to the
// later insert) and its unread count.
const roomSelect = `
	SELECT
		r.id,
		r.participant_id,
		r.participant_name,
		r.participant_image,
		r.product_id,
		r.product_title,
		r.product_price,
		r.product_image,
		r.product_status,
		COALESCE(last.text, ''),
		last.created_at,
		COALESCE(last.mine, 0),
		last.is_read,
		COALESCE(unread.count, 0)
	FROM room r
	LEFT JOIN message last ON last.seq = (
		SELECT m.seq FROM message m
		WHERE m.room_id = r.id
		ORDER BY m.created_at DESC, m.seq DESC
		LIMIT 1
	)
	LEFT JOIN (
		SELECT room_id, COUNT(*) AS count
		FROM message
		WHERE mine = 0 AND is_read = 0
		GROUP BY room_id
	) unread ON unread.room_id = r.id
`

const productSelect = `
	SELECT id, title, price, location, category, posted_at, image, liked, chat_count, seller_id, seller_name
	FROM product
`

type Store struct {
	db      *sql.DB
	profile models.Profile
	now     func() time.Time
	log     zerolog.Logger
}

type Option func(*Store)

// WithClock overrides the clock used to stamp sent messages.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New opens a private in-memory database and seeds it from c. The catalog is
// copied; later changes to it are not observed.
func New(c *catalog.Catalog, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{
		db:      db,
		profile: c.Profile,
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.seed(c); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database. The store is unusable afterwards.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) seed(c *catalog.Catalog) error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin seed: %w", err)
	}
	defer tx.Rollback()

	for i, r := range c.Rooms {
		if err := insertRoom(tx, i+1, r.Room); err != nil {
			return err
		}
		for _, m := range r.Messages {
			if err := insertMessage(tx, m); err != nil {
				return err
			}
		}
	}
	for i, p := range c.Products {
		_, err := tx.Exec(`
			INSERT INTO product (seq, id, title, price, location, category, posted_at, image, liked, chat_count, seller_id, seller_name)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i+1, p.ID, p.Title, p.Price, p.Location, p.Category, p.PostedAt.UnixMilli(),
			p.Image, p.Liked, p.ChatCount, p.Seller.ID, p.Seller.Name)
		if err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	s.log.Debug().Int("rooms", len(c.Rooms)).Int("products", len(c.Products)).Msg("store seeded")
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertRoom(db execer, seq int, room models.ChatRoom) error {
	var productID sql.NullString
	var ref models.ProductRef
	if room.Product != nil {
		ref = *room.Product
		productID = sql.NullString{String: ref.ID, Valid: true}
	}
	_, err := db.Exec(`
		INSERT INTO room (id, seq, participant_id, participant_name, participant_image,
			product_id, product_title, product_price, product_image, product_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		room.ID, seq, room.Participant.ID, room.Participant.Name, room.Participant.ProfileImage,
		productID, ref.Title, ref.Price, ref.Image, string(ref.Status))
	if err != nil {
		return fmt.Errorf("failed to insert room %s: %w", room.ID, err)
	}
	return nil
}

func insertMessage(db execer, m models.Message) error {
	var read sql.NullBool
	if m.Read != nil {
		read = sql.NullBool{Bool: *m.Read, Valid: true}
	}
	_, err := db.Exec(`
		INSERT INTO message (id, room_id, text, mine, created_at, is_read)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.RoomID, m.Text, m.Mine, m.CreatedAt, read)
	if err != nil {
		return fmt.Errorf("failed to insert message %s: %w", m.ID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoom(row scanner) (models.ChatRoom, error) {
	var (
		room      models.ChatRoom
		productID sql.NullString
		ref       models.ProductRef
		status    string
		lastAt    sql.NullInt64
		lastMine  bool
		lastRead  sql.NullBool
	)
	err := row.Scan(
		&room.ID,
		&room.Participant.ID,
		&room.Participant.Name,
		&room.Participant.ProfileImage,
		&productID,
		&ref.Title,
		&ref.Price,
		&ref.Image,
		&status,
		&room.LastMessage.Content,
		&lastAt,
		&lastMine,
		&lastRead,
		&room.UnreadCount,
	)
	if err != nil {
		return models.ChatRoom{}, err
	}

	if productID.Valid {
		ref.ID = productID.String
		ref.Status = models.ProductStatus(status)
		room.Product = &ref
	}

	room.LastMessage.Read = true
	if lastAt.Valid {
		room.LastMessage.Timestamp = time.UnixMilli(lastAt.Int64)
		room.LastMessage.Read = lastMine || !lastRead.Valid || lastRead.Bool
		room.LastMessage.SenderID = room.Participant.ID
		if lastMine {
			room.LastMessage.SenderID = "me"
		}
	}
	return room, nil
}

// Rooms lists rooms newest activity first. Rooms with equal timestamps keep
// fixture order; rooms without messages sort last.
func (s *Store) Rooms(filter Filter) ([]models.ChatRoom, error) {
	query := roomSelect + `
		WHERE (? = 0 OR COALESCE(unread.count, 0) > 0)
		ORDER BY COALESCE(last.created_at, 0) DESC, r.seq ASC
	`
	rows, err := s.db.Query(query, filter == FilterUnread)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	out := []models.ChatRoom{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

func (s *Store) Room(roomID string) (models.ChatRoom, error) {
	room, err := scanRoom(s.db.QueryRow(roomSelect+` WHERE r.id = ?`, roomID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatRoom{}, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	if err != nil {
		return models.ChatRoom{}, fmt.Errorf("failed to query room %s: %w", roomID, err)
	}
	return room, nil
}

func (s *Store) roomExists(roomID string) error {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM room WHERE id = ?`, roomID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	return err
}

// Messages returns the room's messages in insertion order.
func (s *Store) Messages(roomID string) ([]models.Message, error) {
	if err := s.roomExists(roomID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT id, room_id, text, mine, created_at, is_read
		FROM message
		WHERE room_id = ?
		ORDER BY seq ASC`, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		var m models.Message
		var read sql.NullBool
		if err := rows.Scan(&m.ID, &m.RoomID, &m.Text, &m.Mine, &m.CreatedAt, &read); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if read.Valid {
			r := read.Bool
			m.Read = &r
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Send appends a new outgoing message to the room.
func (s *Store) Send(roomID, text string) (models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return models.Message{}, ErrEmptyMessage
	}
	if err := s.roomExists(roomID); err != nil {
		return models.Message{}, err
	}

	msg := timeline.NewMessage(roomID, text, s.now())
	if err := insertMessage(s.db, msg); err != nil {
		return models.Message{}, err
	}

	s.log.Debug().Str("room", roomID).Str("message", msg.ID).Msg("message sent")
	return msg, nil
}

// MarkRead marks the participant's unread messages in the room as read.
func (s *Store) MarkRead(roomID string) error {
	if err := s.roomExists(roomID); err != nil {
		return err
	}

	_, err := s.db.Exec(`
		UPDATE message
		SET is_read = 1
		WHERE room_id = ?
		AND mine = 0
		AND is_read = 0`, roomID)
	if err != nil {
		return fmt.Errorf("failed to mark messages as read: %w", err)
	}
	return nil
}

// Delete removes a room and its history.
func (s *Store) Delete(roomID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM room WHERE id = ?`, roomID)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	if _, err := tx.Exec(`DELETE FROM message WHERE room_id = ?`, roomID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	s.log.Info().Str("room", roomID).Msg("chat room deleted")
	return nil
}

// OpenForProduct returns the room about productID, creating an empty one with
// the product's seller when none exists yet.
func (s *Store) OpenForProduct(productID string) (models.ChatRoom, error) {
	var roomID string
	err := s.db.QueryRow(`SELECT id FROM room WHERE product_id = ? ORDER BY seq LIMIT 1`, productID).Scan(&roomID)
	if err == nil {
		return s.Room(roomID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.ChatRoom{}, fmt.Errorf("failed to look up room for %s: %w", productID, err)
	}

	p, err := s.product(productID)
	if err != nil {
		return models.ChatRoom{}, err
	}

	seller := p.Seller
	if seller.ID == "" {
		seller = models.Participant{ID: "seller-" + p.ID, Name: "Seller"}
	}
	room := models.ChatRoom{
		ID:          "p-" + p.ID,
		Participant: seller,
		Product: &models.ProductRef{
			ID:     p.ID,
			Title:  p.Title,
			Price:  p.Price,
			Image:  p.Image,
			Status: models.StatusAvailable,
		},
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.ChatRoom{}, fmt.Errorf("failed to begin open: %w", err)
	}
	defer tx.Rollback()

	var seq int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(seq), 0) + 1 FROM room`).Scan(&seq); err != nil {
		return models.ChatRoom{}, fmt.Errorf("failed to allocate room: %w", err)
	}
	if err := insertRoom(tx, seq, room); err != nil {
		return models.ChatRoom{}, err
	}
	if _, err := tx.Exec(`UPDATE product SET chat_count = chat_count + 1 WHERE id = ?`, p.ID); err != nil {
		return models.ChatRoom{}, fmt.Errorf("failed to count chat: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.ChatRoom{}, fmt.Errorf("failed to commit open: %w", err)
	}

	s.log.Info().Str("room", room.ID).Str("product", p.ID).Msg("chat room opened")
	return s.Room(room.ID)
}

func scanProduct(row scanner) (models.Product, error) {
	var p models.Product
	var postedAt int64
	err := row.Scan(&p.ID, &p.Title, &p.Price, &p.Location, &p.Category, &postedAt,
		&p.Image, &p.Liked, &p.ChatCount, &p.Seller.ID, &p.Seller.Name)
	if err != nil {
		return models.Product{}, err
	}
	p.PostedAt = time.UnixMilli(postedAt)
	return p, nil
}

func (s *Store) product(productID string) (models.Product, error) {
	p, err := scanProduct(s.db.QueryRow(productSelect+` WHERE id = ?`, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("failed to query product %s: %w", productID, err)
	}
	return p, nil
}

func (s *Store) Products() ([]models.Product, error) {
	return s.ProductsIn(CategoryAll)
}

// ProductsIn lists the products of one category in fixture order.
// CategoryAll lists every product.
func (s *Store) ProductsIn(category string) ([]models.Product, error) {
	query := productSelect + ` WHERE (? = '' OR category = ?) ORDER BY seq`
	if category == CategoryAll {
		category = ""
	}
	rows, err := s.db.Query(query, category, category)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	out := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Categories returns CategoryAll followed by every product category in order
// of first appearance.
func (s *Store) Categories() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT category
		FROM product
		WHERE category != ''
		GROUP BY category
		ORDER BY MIN(seq)`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	out := []string{CategoryAll}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ToggleLike flips the liked flag of a product listing.
func (s *Store) ToggleLike(productID string) (bool, error) {
	res, err := s.db.Exec(`UPDATE product SET liked = 1 - liked WHERE id = ?`, productID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle like: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}

	p, err := s.product(productID)
	if err != nil {
		return false, err
	}
	return p.Liked, nil
}

func (s *Store) Profile() models.Profile {
	return s.profile
}
