package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docshelf/internal/domain"
	"docshelf/internal/port"
)

// Searcher is the TUI-facing subset of the retrieval pipeline.
type Searcher interface {
	Retrieve(ctx context.Context, query string, topK int, docIDs []string) (domain.RetrievalResult, error)
}

// answerMsg carries a finished answer generation back into Update.
type answerMsg struct {
	query string
	text  string
	err   error
}

// Model is the Bubble Tea model for the interactive search screen.
type Model struct {
	searcher   Searcher
	answerer   port.AnswerGenerator
	topK       int
	input      textinput.Model
	viewport   viewport.Model
	passages   []domain.RankedPassage
	lastClass  domain.QueryClassification
	summary    string
	status     string
	answer     string
	cursor     int
	ready      bool
	showAnswer bool
	generating bool
	lastQuery  string
}

// New creates the interactive search model. The summary line is shown
// under the header, typically the document count.
func New(searcher Searcher, summary string, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		searcher: searcher,
		topK:     topK,
		input:    ti,
		viewport: vp,
		summary:  summary,
		status:   "Library loaded. Type to search.",
	}
}

// WithAnswerer attaches an answer generator. Tab then composes an answer
// over the current passages.
func (m Model) WithAnswerer(a port.AnswerGenerator) Model {
	m.answerer = a
	return m
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2
		totalFooterLines := 1
		reserved := totalHeaderLines + totalFooterLines + qh + 1
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentPassage())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.runQuery(q)
				m.viewport.SetContent(m.renderCurrentPassage())
				return m, nil
			}
		case "down":
			if len(m.passages) > 0 {
				m.showAnswer = false
				m.cursor = (m.cursor + 1) % len(m.passages)
				m.viewport.SetContent(m.renderCurrentPassage())
				return m, nil
			}
		case "up":
			if len(m.passages) > 0 {
				m.showAnswer = false
				m.cursor = (m.cursor - 1 + len(m.passages)) % len(m.passages)
				m.viewport.SetContent(m.renderCurrentPassage())
				return m, nil
			}
		case "tab":
			return m.toggleAnswer()
		}
	case answerMsg:
		m.generating = false
		// A newer query may have replaced the one this answer belongs to.
		if msg.query != m.lastQuery {
			return m, nil
		}
		if msg.err != nil {
			m.status = "Answer failed: " + msg.err.Error()
			return m, nil
		}
		m.answer = msg.text
		m.showAnswer = true
		m.status = fmt.Sprintf("Answer for %q. Tab returns to passages.", m.lastQuery)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// toggleAnswer flips between the passage browser and the answer pane,
// generating the answer on first use for the current query.
func (m Model) toggleAnswer() (tea.Model, tea.Cmd) {
	if m.showAnswer {
		m.showAnswer = false
		m.viewport.SetContent(m.renderCurrentPassage())
		return m, nil
	}
	if m.answerer == nil || len(m.passages) == 0 || m.generating {
		return m, nil
	}
	if m.answer != "" {
		m.showAnswer = true
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	}

	m.generating = true
	m.status = "Composing answer..."
	answerer, query, passages, class := m.answerer, m.lastQuery, m.passages, m.lastClass
	return m, func() tea.Msg {
		text, err := answerer.Generate(context.Background(), query, passages, class)
		return answerMsg{query: query, text: text, err: err}
	}
}

func (m *Model) runQuery(q string) {
	result, err := m.searcher.Retrieve(context.Background(), q, m.topK, nil)
	if err != nil {
		m.status = "Error: " + err.Error()
		m.passages = nil
		return
	}

	m.lastQuery = q
	m.lastClass = result.Classification
	m.cursor = 0
	m.answer = ""
	m.showAnswer = false

	if result.Bypassed {
		m.status = "Library question. Use 'docshelf list' or 'docshelf stats'."
		m.passages = nil
		return
	}

	m.passages = result.Passages
	m.status = fmt.Sprintf("%d passages for %q (%s)", len(result.Passages), q, result.Classification.Intent)
	if m.answerer != nil && len(result.Passages) > 0 {
		m.status += " Tab composes an answer."
	}
}

// View renders the layout and the current passage.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("docshelf")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	passages := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + passages + "\n" + input + "\n" + status
}

func (m Model) renderCurrentPassage() string {
	if len(m.passages) == 0 {
		return "No passages yet."
	}
	p := m.passages[m.cursor]
	title := fmt.Sprintf("Passage %d/%d  %s  score=%.3f",
		m.cursor+1, len(m.passages), p.Document.Title, p.Score)
	body := highlightBestSentence(p.Chunk.Text, m.lastQuery)
	return title + "\n\n" + body
}

func (m Model) renderAnswer() string {
	title := fmt.Sprintf("Answer  %d passages used", len(m.passages))
	return title + "\n\n" + m.answer
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence marks the sentence with the highest query-token
// overlap, so the eye lands on the part that matched.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
