// Package catalog loads the read-only storefront fixtures: chat rooms with
// their messages, product listings and the local user's profile.
package catalog

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/saravenpi/bazaar/internal/models"
)

//go:embed fixtures/*.yml
var defaultFixtures embed.FS

// Offsets like "26h" are relative to the load clock so sample threads always
// straddle real calendar days; At pins an absolute timestamp instead.
type fixtureMessage struct {
	ID   string    `yaml:"id"`
	Text string    `yaml:"text"`
	Mine bool      `yaml:"mine,omitempty"`
	Ago  string    `yaml:"ago,omitempty"`
	At   time.Time `yaml:"at,omitempty"`
	Read *bool     `yaml:"read,omitempty"`
}

type fixtureRoom struct {
	ID          string             `yaml:"id"`
	Participant models.Participant `yaml:"participant"`
	Product     *models.ProductRef `yaml:"product,omitempty"`
	Messages    []fixtureMessage   `yaml:"messages,omitempty"`
}

type fixtureProduct struct {
	ID        string             `yaml:"id"`
	Title     string             `yaml:"title"`
	Price     string             `yaml:"price"`
	Location  string             `yaml:"location"`
	Category  string             `yaml:"category,omitempty"`
	Ago       string             `yaml:"ago,omitempty"`
	At        time.Time          `yaml:"at,omitempty"`
	Image     string             `yaml:"image,omitempty"`
	Liked     bool               `yaml:"liked,omitempty"`
	ChatCount int                `yaml:"chat_count,omitempty"`
	Seller    models.Participant `yaml:"seller,omitempty"`
}

type fixtureProfile struct {
	ID                string  `yaml:"id"`
	Name              string  `yaml:"name"`
	Nickname          string  `yaml:"nickname,omitempty"`
	Email             string  `yaml:"email,omitempty"`
	City              string  `yaml:"city"`
	District          string  `yaml:"district"`
	MannerTemperature float64 `yaml:"manner_temperature"`
	ResponseRate      int     `yaml:"response_rate,omitempty"`
	JoinedAgo         string  `yaml:"joined_ago,omitempty"`
	Verified          bool    `yaml:"verified,omitempty"`
	TotalSales        int     `yaml:"total_sales"`
	TotalPurchases    int     `yaml:"total_purchases"`
	TotalReviews      int     `yaml:"total_reviews"`
	AverageRating     float64 `yaml:"average_rating"`
}

type fixtureFile struct {
	Profile  *fixtureProfile  `yaml:"profile,omitempty"`
	Products []fixtureProduct `yaml:"products,omitempty"`
	Rooms    []fixtureRoom    `yaml:"rooms,omitempty"`
}

// Room is a chat room together with its full message history.
type Room struct {
	Room     models.ChatRoom
	Messages []models.Message
}

type Catalog struct {
	Rooms    []Room
	Products []models.Product
	Profile  models.Profile

	participants map[string]models.Participant
}

// Load reads every *.yml file in dir, or the embedded fixtures when dir is
// empty. Later files override rooms and products with the same id.
func Load(dir string, now time.Time) (*Catalog, error) {
	files, err := readFixtureFiles(dir)
	if err != nil {
		return nil, err
	}

	c := &Catalog{participants: make(map[string]models.Participant)}
	roomIndex := make(map[string]int)
	productIndex := make(map[string]int)

	for _, f := range files {
		if f.Profile != nil {
			p, err := f.Profile.toModel(now)
			if err != nil {
				return nil, err
			}
			c.Profile = p
		}

		for _, fp := range f.Products {
			p, err := fp.toModel(now)
			if err != nil {
				return nil, err
			}
			if p.Seller.ID != "" {
				c.participants[normalizeID(p.Seller.ID)] = p.Seller
			}
			if i, ok := productIndex[p.ID]; ok {
				c.Products[i] = p
				continue
			}
			productIndex[p.ID] = len(c.Products)
			c.Products = append(c.Products, p)
		}

		for _, fr := range f.Rooms {
			r, err := fr.toRoom(now)
			if err != nil {
				return nil, err
			}
			c.participants[normalizeID(r.Room.Participant.ID)] = r.Room.Participant
			if i, ok := roomIndex[r.Room.ID]; ok {
				c.Rooms[i] = r
				continue
			}
			roomIndex[r.Room.ID] = len(c.Rooms)
			c.Rooms = append(c.Rooms, r)
		}
	}

	return c, nil
}

// FindParticipant looks up a chat participant or product seller by id.
// Returns false if not found.
func (c *Catalog) FindParticipant(id string) (models.Participant, bool) {
	p, ok := c.participants[normalizeID(id)]
	return p, ok
}

func readFixtureFiles(dir string) ([]fixtureFile, error) {
	if dir == "" {
		data, err := defaultFixtures.ReadFile("fixtures/default.yml")
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded fixtures: %w", err)
		}
		f, err := parseFixture(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse embedded fixtures: %w", err)
		}
		return []fixtureFile{f}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	files := make([]fixtureFile, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read fixture file %s: %w", name, err)
		}
		f, err := parseFixture(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse fixture file %s: %w", name, err)
		}
		files = append(files, f)
	}
	return files, nil
}

func parseFixture(data []byte) (fixtureFile, error) {
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fixtureFile{}, err
	}
	return f, nil
}

func resolveTime(ago string, at time.Time, now time.Time) (time.Time, error) {
	if !at.IsZero() {
		return at, nil
	}
	if ago == "" {
		return now, nil
	}
	d, err := time.ParseDuration(ago)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid offset %q: %w", ago, err)
	}
	return now.Add(-d), nil
}

func (fr fixtureRoom) toRoom(now time.Time) (Room, error) {
	if fr.ID == "" {
		return Room{}, fmt.Errorf("room id cannot be empty")
	}

	room := models.ChatRoom{
		ID:          fr.ID,
		Participant: fr.Participant,
		Product:     fr.Product,
	}

	msgs := make([]models.Message, 0, len(fr.Messages))
	for i, fm := range fr.Messages {
		t, err := resolveTime(fm.Ago, fm.At, now)
		if err != nil {
			return Room{}, fmt.Errorf("room %s message %d: %w", fr.ID, i, err)
		}
		id := fm.ID
		if id == "" {
			id = fmt.Sprintf("%s-%d", fr.ID, i)
		}
		msgs = append(msgs, models.Message{
			ID:        id,
			RoomID:    fr.ID,
			Text:      fm.Text,
			Mine:      fm.Mine,
			CreatedAt: t.UnixMilli(),
			Read:      fm.Read,
		})
	}

	for _, m := range msgs {
		if !m.Mine && m.Read != nil && !*m.Read {
			room.UnreadCount++
		}
	}
	room.LastMessage = LastMessage(msgs, fr.Participant.ID)

	return Room{Room: room, Messages: msgs}, nil
}

// LastMessage summarizes the newest message of a room for the chat list.
func LastMessage(msgs []models.Message, participantID string) models.LastMessage {
	var newest *models.Message
	for i := range msgs {
		if newest == nil || msgs[i].CreatedAt >= newest.CreatedAt {
			newest = &msgs[i]
		}
	}
	if newest == nil {
		return models.LastMessage{Read: true}
	}

	lm := models.LastMessage{
		Content:   newest.Text,
		Timestamp: time.UnixMilli(newest.CreatedAt),
		Read:      newest.Mine || newest.Read == nil || *newest.Read,
		SenderID:  participantID,
	}
	if newest.Mine {
		lm.SenderID = "me"
	}
	return lm
}

func (fp fixtureProduct) toModel(now time.Time) (models.Product, error) {
	if fp.ID == "" {
		return models.Product{}, fmt.Errorf("product id cannot be empty")
	}
	t, err := resolveTime(fp.Ago, fp.At, now)
	if err != nil {
		return models.Product{}, fmt.Errorf("product %s: %w", fp.ID, err)
	}
	return models.Product{
		ID:        fp.ID,
		Title:     fp.Title,
		Price:     fp.Price,
		Location:  fp.Location,
		Category:  fp.Category,
		PostedAt:  t,
		Image:     fp.Image,
		Liked:     fp.Liked,
		ChatCount: fp.ChatCount,
		Seller:    fp.Seller,
	}, nil
}

// toModel leaves JoinDate zero when joined_ago is unset.
func (fp fixtureProfile) toModel(now time.Time) (models.Profile, error) {
	var joined time.Time
	if fp.JoinedAgo != "" {
		t, err := resolveTime(fp.JoinedAgo, time.Time{}, now)
		if err != nil {
			return models.Profile{}, fmt.Errorf("profile joined_ago: %w", err)
		}
		joined = t
	}
	return models.Profile{
		ID:                fp.ID,
		Name:              fp.Name,
		Nickname:          fp.Nickname,
		Email:             fp.Email,
		City:              fp.City,
		District:          fp.District,
		MannerTemperature: fp.MannerTemperature,
		ResponseRate:      fp.ResponseRate,
		JoinDate:          joined,
		Verified:          fp.Verified,
		TotalSales:        fp.TotalSales,
		TotalPurchases:    fp.TotalPurchases,
		TotalReviews:      fp.TotalReviews,
		AverageRating:     fp.AverageRating,
	}, nil
}

// normalizeID lowercases and trims participant ids for lookup.
func normalizeID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
