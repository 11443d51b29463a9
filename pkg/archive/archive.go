// Package archive writes durable plain-text transcripts of ticket channels.
package archive

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/Jacobbrewer1/discordgo"
)

const (
	// pageSize is the history fetch size per request.
	pageSize = 100

	// separator closes the header block and every entry.
	separator = "-----------------------------"

	// timeLayout renders entry timestamps.
	timeLayout = "2006-01-02 15:04:05"
)

// HistorySource is the subset of the platform session the archiver needs.
type HistorySource interface {
	// ChannelMessages returns up to limit messages from a channel, scoped by
	// the before/after/around message IDs.
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string) ([]*discordgo.Message, error)
}

// Header is the transcript preamble.
type Header struct {
	// Name is the channel's display name.
	Name string

	// Author is the requesting user's display name.
	Author string

	// Opened is when the channel's first message was sent.
	Opened time.Time

	// Closed is when the transcript was taken.
	Closed time.Time
}

// Archiver streams a channel's full history into a writer, oldest first.
type Archiver struct {
	// src serves the channel history.
	src HistorySource
}

// NewArchiver creates a transcript archiver over a history source.
func NewArchiver(src HistorySource) *Archiver {
	return &Archiver{
		src: src,
	}
}

// Write renders the header and every message of the channel to w. The history
// is paged and buffered so arbitrarily long channels archive in bounded
// memory. Entries appear oldest first regardless of fetch order.
func (a *Archiver) Write(w io.Writer, channelID string, header Header) error {
	out := bufio.NewWriter(w)

	_, err := fmt.Fprintf(out, "Transcript of ticket %s opened by %s.\nOpened on: %s\nClosed on: %s\n%s\n",
		header.Name, header.Author,
		header.Opened.UTC().Format(timeLayout),
		header.Closed.UTC().Format(timeLayout),
		separator)
	if err != nil {
		return fmt.Errorf("writing transcript header: %w", err)
	}

	afterID := ""
	for {
		page, err := a.src.ChannelMessages(channelID, pageSize, "", afterID, "")
		if err != nil {
			return fmt.Errorf("fetching channel history: %w", err)
		}
		if len(page) == 0 {
			break
		}

		// Pages arrive newest first; entries are written oldest first.
		sort.Slice(page, func(i, j int) bool {
			return page[i].Timestamp.Before(page[j].Timestamp)
		})

		for _, msg := range page {
			if err := writeEntry(out, msg); err != nil {
				return err
			}
		}

		afterID = page[len(page)-1].ID
		if len(page) < pageSize {
			break
		}
	}

	if err := out.Flush(); err != nil {
		return fmt.Errorf("flushing transcript: %w", err)
	}
	return nil
}

func writeEntry(w io.Writer, msg *discordgo.Message) error {
	author := "unknown"
	authorID := "unknown"
	if msg.Author != nil {
		author = msg.Author.Username
		authorID = msg.Author.ID
	}

	_, err := fmt.Fprintf(w, "%s %s (%s)\n%s\n%s\n",
		msg.Timestamp.UTC().Format(timeLayout), author, authorID, msg.Content, separator)
	if err != nil {
		return fmt.Errorf("writing transcript entry: %w", err)
	}
	return nil
}
