// Package rss serves the public note feeds.
package rss

import (
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	"github.com/ayakoji/noteshare/internal/profile"
	notesvc "github.com/ayakoji/noteshare/server/service/note"
	"github.com/ayakoji/noteshare/store"
)

const (
	maxFeedItems      = 100
	maxFeedTitleRunes = 100
)

type RSSService struct {
	Profile *profile.Profile
	Store   *store.Store
}

func NewRSSService(profile *profile.Profile, store *store.Store) *RSSService {
	return &RSSService{
		Profile: profile,
		Store:   store,
	}
}

func (s *RSSService) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.GET("/explore/rss.xml", s.GetExploreRSS)
	echoServer.GET("/u/:username/rss.xml", s.GetUserRSS)
}

// GetExploreRSS feeds the latest public notes of the whole instance.
func (s *RSSService) GetExploreRSS(c echo.Context) error {
	ctx := c.Request().Context()

	normal := store.Normal
	limit := maxFeedItems
	notes, err := s.Store.ListNotes(ctx, &store.FindNote{
		RowStatus:      &normal,
		VisibilityList: []store.Visibility{store.VisibilityPublic},
		Limit:          &limit,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list notes").SetInternal(err)
	}

	baseURL := s.baseURL(c)
	rss, err := s.generateFeed(baseURL, baseURL+"/explore", "Explore", notes)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate rss").SetInternal(err)
	}
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationXMLCharsetUTF8)
	return c.String(http.StatusOK, rss)
}

// GetUserRSS feeds one user's public notes.
func (s *RSSService) GetUserRSS(c echo.Context) error {
	ctx := c.Request().Context()

	username := c.Param("username")
	user, err := s.Store.GetUser(ctx, &store.FindUser{Username: &username})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to find user").SetInternal(err)
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	normal := store.Normal
	limit := maxFeedItems
	notes, err := s.Store.ListNotes(ctx, &store.FindNote{
		CreatorID:      &user.ID,
		RowStatus:      &normal,
		VisibilityList: []store.Visibility{store.VisibilityPublic},
		Limit:          &limit,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list notes").SetInternal(err)
	}

	baseURL := s.baseURL(c)
	rss, err := s.generateFeed(baseURL, baseURL+"/u/"+username, fmt.Sprintf("Notes by %s", user.Nickname), notes)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate rss").SetInternal(err)
	}
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationXMLCharsetUTF8)
	return c.String(http.StatusOK, rss)
}

func (s *RSSService) generateFeed(baseURL, link, title string, notes []*store.Note) (string, error) {
	feed := &feeds.Feed{
		Title:       title,
		Link:        &feeds.Link{Href: link},
		Description: "Shared study notes",
		Created:     time.Now(),
	}

	items := make([]*feeds.Item, 0, len(notes))
	for _, note := range notes {
		description, err := notesvc.RenderHTML(note.Content)
		if err != nil {
			return "", err
		}
		noteURL := baseURL + "/n/" + note.UID
		items = append(items, &feeds.Item{
			Id:          noteURL,
			Title:       feedItemTitle(note),
			Link:        &feeds.Link{Href: noteURL},
			Description: description,
			Created:     time.Unix(note.CreatedTs, 0),
		})
	}
	feed.Items = items
	return feed.ToRss()
}

func (s *RSSService) baseURL(c echo.Context) string {
	if s.Profile.InstanceURL != "" {
		return strings.TrimRight(s.Profile.InstanceURL, "/")
	}
	return c.Scheme() + "://" + c.Request().Host
}

func feedItemTitle(note *store.Note) string {
	title := note.Title
	if title == "" {
		title = notesvc.DeriveTitle(note.Content)
	}
	if title == "" {
		title = "Untitled note"
	}
	if utf8.RuneCountInString(title) > maxFeedTitleRunes {
		runes := []rune(title)
		title = string(runes[:maxFeedTitleRunes]) + "..."
	}
	return title
}
