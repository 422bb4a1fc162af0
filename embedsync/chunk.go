package embedsync

import (
	"strings"
	"time"

	"github.com/w-h-a/recall/sessionstore"
)

// ChunkPiece is a contiguous slice of a session's transcript sized for
// embedding, with the ids and time span of the messages it covers.
type ChunkPiece struct {
	Text       string
	MessageIds []string
	Start      time.Time
	End        time.Time
}

// Chunk splits a session's messages into pieces of roughly chunkWords
// words each, with consecutive pieces sharing overlapWords words of
// transcript. Each message is rendered as a "role: content" line.
// A message shorter than the remaining budget is never split, so the
// ids attached to a piece always cover whole messages.
func Chunk(msgs []sessionstore.Message, chunkWords, overlapWords int) []ChunkPiece {
	if len(msgs) == 0 {
		return nil
	}

	if chunkWords <= 0 {
		chunkWords = 300
	}

	if overlapWords < 0 || overlapWords >= chunkWords {
		overlapWords = 0
	}

	var pieces []ChunkPiece

	start := 0
	for start < len(msgs) {
		words := 0
		end := start

		for end < len(msgs) {
			cost := wordCount(msgs[end])
			if words > 0 && words+cost > chunkWords {
				break
			}
			words += cost
			end++
		}

		pieces = append(pieces, buildPiece(msgs[start:end]))

		if end >= len(msgs) {
			break
		}

		// Walk back from the boundary until roughly overlapWords words
		// are shared with the next piece.
		next := end
		shared := 0
		for next > start+1 && shared < overlapWords {
			next--
			shared += wordCount(msgs[next])
		}
		start = next
	}

	return pieces
}

func buildPiece(msgs []sessionstore.Message) ChunkPiece {
	lines := make([]string, 0, len(msgs))
	ids := make([]string, 0, len(msgs))

	for _, msg := range msgs {
		lines = append(lines, msg.Role+": "+msg.Content)
		ids = append(ids, msg.Id)
	}

	return ChunkPiece{
		Text:       strings.Join(lines, "\n"),
		MessageIds: ids,
		Start:      msgs[0].Timestamp,
		End:        msgs[len(msgs)-1].Timestamp,
	}
}

func wordCount(msg sessionstore.Message) int {
	return len(strings.Fields(msg.Role + ": " + msg.Content))
}
