// Package ui implements the taskdeck terminal interface: a single task
// list the user cycles through views on, with modal states for quick
// add, search, due dates, notes and delete confirmation.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nissyi-gh/taskdeck/internal/model"
	"github.com/nissyi-gh/taskdeck/internal/offline"
	"github.com/nissyi-gh/taskdeck/internal/quickadd"
	"github.com/nissyi-gh/taskdeck/internal/remote"
	"github.com/nissyi-gh/taskdeck/internal/repo"
	"github.com/nissyi-gh/taskdeck/internal/view"
)

type appState int

const (
	stateList appState = iota
	stateQuickAdd
	stateSearch
	stateDueDate
	stateNotes
	stateConfirm
)

var (
	appStyle     = lipgloss.NewStyle().Padding(1, 2)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	confirmStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

// viewCycle is the tab order. The project view is entered from a task,
// not cycled to.
var viewCycle = []view.View{
	view.All,
	view.Today,
	view.Upcoming,
	view.Priority,
	view.UrgentImportant,
	view.Focus,
	view.Shopping,
	view.Reminders,
}

type extraKeyMap struct {
	Add        key.Binding
	Toggle     key.Binding
	Delete     key.Binding
	Undo       key.Binding
	Search     key.Binding
	NextView   key.Binding
	DueDate    key.Binding
	Notes      key.Binding
	Urgent     key.Binding
	Importance key.Binding
	Move       key.Binding
	Yank       key.Binding
	Project    key.Binding
}

func newExtraKeyMap() extraKeyMap {
	return extraKeyMap{
		Add: key.NewBinding(
			key.WithKeys("a", "n"),
			key.WithHelp("a/n", "add"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", "x"),
			key.WithHelp("enter/x", "done"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "undo"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		NextView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next view"),
		),
		DueDate: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "due date"),
		),
		Notes: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "notes"),
		),
		Urgent: key.NewBinding(
			key.WithKeys("!"),
			key.WithHelp("!", "urgent"),
		),
		Importance: key.NewBinding(
			key.WithKeys("*"),
			key.WithHelp("*", "importance"),
		),
		Move: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "move section"),
		),
		Yank: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "yank"),
		),
		Project: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "project"),
		),
	}
}

// Model is the top-level BubbleTea model for the taskdeck TUI.
type Model struct {
	state       appState
	list        list.Model
	input       textinput.Model
	searchInput textinput.Model
	dateInput   dateInput
	notesInput  textarea.Model

	tasks     *repo.Tasks
	sections  *repo.Sections
	projects  *repo.Projects
	reminders *repo.Reminders
	cache     *offline.Store
	store     remote.Store

	current   view.View
	prevView  view.View
	projectID string
	search    string

	lastCompleted *model.Task
	lastDeleted   *model.Task
	dueTaskID     string
	notesTaskID   string

	keys    extraKeyMap
	updates chan struct{}
	err     error
	width   int
	height  int
}

type refreshMsg struct{}

// NewModel wires the TUI over the repositories. The repositories must
// already be loaded.
func NewModel(tasks *repo.Tasks, sections *repo.Sections, projects *repo.Projects, reminders *repo.Reminders, cache *offline.Store, store remote.Store) Model {
	ti := textinput.New()
	ti.Placeholder = "*!Task name #tag p:project @due(tomorrow)..."
	ti.CharLimit = 256

	si := textinput.New()
	si.Placeholder = "Search name, notes, tags, project..."
	si.CharLimit = 128

	ta := textarea.New()
	ta.Placeholder = "Notes..."
	ta.CharLimit = 4096

	keys := newExtraKeyMap()

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetHeight(1)
	delegate.SetSpacing(0)
	l := list.New(nil, delegate, 0, 0)
	l.Styles.Title = titleStyle
	l.SetShowHelp(true)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("task", "tasks")
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Toggle, keys.Delete, keys.Search, keys.NextView}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{
			keys.Add, keys.Toggle, keys.Delete, keys.Undo, keys.Search, keys.NextView,
			keys.DueDate, keys.Notes, keys.Urgent, keys.Importance, keys.Move, keys.Yank, keys.Project,
		}
	}

	updates := make(chan struct{}, 1)
	notify := func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	}
	tasks.Watch(notify)
	sections.Watch(notify)
	projects.Watch(notify)
	reminders.Watch(notify)
	store.OnReachabilityChange(func(bool) { notify() })

	m := Model{
		state:       stateList,
		list:        l,
		input:       ti,
		searchInput: si,
		dateInput:   newDateInput(),
		notesInput:  ta,
		tasks:       tasks,
		sections:    sections,
		projects:    projects,
		reminders:   reminders,
		cache:       cache,
		store:       store,
		current:     view.All,
		keys:        keys,
		updates:     updates,
	}
	m.refreshItems()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.waitForUpdate()
}

// waitForUpdate blocks until a repository or the reachability probe
// signals a change, then triggers a re-projection.
func (m Model) waitForUpdate() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		<-updates
		return refreshMsg{}
	}
}

func (m *Model) criteria() view.Criteria {
	return view.Criteria{View: m.current, Search: m.search, ProjectID: m.projectID}
}

// refreshItems projects the repository state into the visible list.
func (m *Model) refreshItems() {
	if m.current == view.Reminders {
		reminders := m.reminders.List()
		items := make([]list.Item, len(reminders))
		for i, r := range reminders {
			items[i] = ReminderItem{Reminder: r}
		}
		m.list.SetItems(items)
		m.list.Title = "taskdeck · reminders"
		m.list.SetStatusBarItemName("reminder", "reminders")
		return
	}

	crit := m.criteria()
	sections := m.sections.List()
	projects := m.projects.List()
	tasks := view.Tasks(m.tasks.List(), sections, projects, crit)

	sectionNames := make(map[string]string, len(sections))
	for _, s := range sections {
		sectionNames[s.ID] = s.Name
	}
	projectByID := make(map[string]model.Project, len(projects))
	for _, p := range projects {
		projectByID[p.ID] = p
	}
	multiSection := len(view.VisibleSections(sections, crit)) > 1

	items := make([]list.Item, len(tasks))
	for i, t := range tasks {
		item := TaskItem{Task: t}
		if multiSection {
			item.Section = sectionNames[t.SectionID]
		}
		if t.ProjectID != nil {
			if p, ok := projectByID[*t.ProjectID]; ok {
				item.ProjectName = p.Name
				item.ProjectColor = p.Color
			}
		}
		items[i] = item
	}
	m.list.SetItems(items)
	m.list.SetStatusBarItemName("task", "tasks")

	title := "taskdeck · " + string(m.current)
	if m.current == view.Project {
		if p, err := m.projects.Get(m.projectID); err == nil {
			title = "taskdeck · " + p.Name
		}
	}
	if m.search != "" {
		title += " · /" + m.search
	}
	m.list.Title = title
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h, v := appStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-2)
		m.notesInput.SetWidth(msg.Width - h - 4)
		m.notesInput.SetHeight(msg.Height - v - 10)
		return m, nil

	case refreshMsg:
		m.refreshItems()
		return m, m.waitForUpdate()
	}

	switch m.state {
	case stateList:
		return m.updateList(msg)
	case stateQuickAdd:
		return m.updateQuickAdd(msg)
	case stateSearch:
		return m.updateSearch(msg)
	case stateDueDate:
		return m.updateDueDate(msg)
	case stateNotes:
		return m.updateNotes(msg)
	case stateConfirm:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) selectedTask() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return item.Task, true
}

func (m Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	ctx := context.Background()

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "tab":
			m.setView(nextView(m.current, 1))
			return m, nil
		case "shift+tab":
			m.setView(nextView(m.current, -1))
			return m, nil

		case "a", "n":
			m.state = stateQuickAdd
			m.input.Reset()
			return m, m.input.Focus()

		case "/":
			m.state = stateSearch
			m.searchInput.SetValue(m.search)
			return m, m.searchInput.Focus()

		case "esc":
			switch {
			case m.current == view.Project:
				m.setView(m.prevView)
			case m.search != "":
				m.search = ""
				m.refreshItems()
			}
			return m, nil

		case "enter", "x":
			if m.current == view.Reminders {
				if item, ok := m.list.SelectedItem().(ReminderItem); ok {
					if _, err := m.reminders.Toggle(ctx, item.Reminder.ID); err != nil {
						m.err = err
					}
					m.refreshItems()
				}
				return m, nil
			}
			if task, ok := m.selectedTask(); ok {
				completed, err := m.tasks.Complete(ctx, task.ID)
				if err != nil {
					m.err = err
				} else {
					m.lastCompleted = &completed
					m.lastDeleted = nil
					m.err = nil
				}
				m.refreshItems()
			}
			return m, nil

		case "u":
			switch {
			case m.lastCompleted != nil:
				if _, err := m.tasks.Uncomplete(ctx, *m.lastCompleted); err != nil {
					m.err = err
				}
				m.lastCompleted = nil
			case m.lastDeleted != nil:
				if _, err := m.tasks.UndoDelete(ctx, *m.lastDeleted); err != nil {
					m.err = err
				}
				m.lastDeleted = nil
			}
			m.refreshItems()
			return m, nil

		case "d":
			if m.list.SelectedItem() != nil {
				m.state = stateConfirm
			}
			return m, nil

		case "D":
			if task, ok := m.selectedTask(); ok {
				m.state = stateDueDate
				m.dueTaskID = task.ID
				m.dateInput = newDateInput()
				if task.DueDate != nil {
					m.dateInput.SetValue(*task.DueDate)
				}
				return m, m.dateInput.Focus()
			}
			return m, nil

		case "e":
			if task, ok := m.selectedTask(); ok {
				m.state = stateNotes
				m.notesTaskID = task.ID
				m.notesInput.Reset()
				if task.Notes != nil {
					m.notesInput.SetValue(*task.Notes)
				}
				return m, m.notesInput.Focus()
			}
			return m, nil

		case "!":
			if task, ok := m.selectedTask(); ok {
				urgent := model.FlagYes
				if task.Urgent == model.FlagYes {
					urgent = model.FlagNo
				}
				if _, err := m.tasks.Update(ctx, task.ID, repo.TaskPatch{Urgent: &urgent}); err != nil {
					m.err = err
				}
				m.refreshItems()
			}
			return m, nil

		case "*":
			if task, ok := m.selectedTask(); ok {
				next := nextImportance(task.Importance)
				if _, err := m.tasks.Update(ctx, task.ID, repo.TaskPatch{Importance: &next}); err != nil {
					m.err = err
				}
				m.refreshItems()
			}
			return m, nil

		case "m":
			if task, ok := m.selectedTask(); ok {
				if target, ok := m.nextSection(task.SectionID); ok {
					if _, err := m.tasks.Move(ctx, task.ID, target.ID); err != nil {
						m.err = err
					}
					m.refreshItems()
				}
			}
			return m, nil

		case "J", "K":
			if task, ok := m.selectedTask(); ok {
				delta := 1
				if keyMsg.String() == "K" {
					delta = -1
				}
				if err := m.shiftTask(ctx, task, delta); err != nil {
					m.err = err
				}
				m.refreshItems()
			}
			return m, nil

		case "y":
			if task, ok := m.selectedTask(); ok {
				if err := clipboard.WriteAll(task.Name); err != nil {
					m.err = err
				}
			}
			return m, nil

		case "p":
			if task, ok := m.selectedTask(); ok && task.ProjectID != nil {
				m.prevView = m.current
				m.current = view.Project
				m.projectID = *task.ProjectID
				m.refreshItems()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) setView(v view.View) {
	m.current = v
	m.projectID = ""
	m.err = nil
	m.refreshItems()
}

func nextView(current view.View, delta int) view.View {
	for i, v := range viewCycle {
		if v == current {
			return viewCycle[(i+delta+len(viewCycle))%len(viewCycle)]
		}
	}
	return viewCycle[0]
}

func nextImportance(current model.Importance) model.Importance {
	switch current {
	case model.Important:
		return model.VeryImportant
	case model.VeryImportant:
		return model.Normal
	default:
		return model.Important
	}
}

// nextSection picks the section after the given one among the sections
// the current view displays.
func (m *Model) nextSection(sectionID string) (model.Section, bool) {
	visible := view.VisibleSections(m.sections.List(), m.criteria())
	if len(visible) < 2 {
		return model.Section{}, false
	}
	for i, s := range visible {
		if s.ID == sectionID {
			return visible[(i+1)%len(visible)], true
		}
	}
	return visible[0], true
}

// shiftTask swaps the selected task with its neighbor inside its section
// and pushes the new ordering as one batched reorder.
func (m *Model) shiftTask(ctx context.Context, task model.Task, delta int) error {
	var ids []string
	for _, t := range m.tasks.List() {
		if t.SectionID == task.SectionID {
			ids = append(ids, t.ID)
		}
	}
	idx := -1
	for i, id := range ids {
		if id == task.ID {
			idx = i
			break
		}
	}
	target := idx + delta
	if idx < 0 || target < 0 || target >= len(ids) {
		return nil
	}
	ids[idx], ids[target] = ids[target], ids[idx]
	return m.tasks.Reorder(ctx, task.SectionID, ids)
}

// quickAddSection is where a quick-added task lands: the selected task's
// section, else the first section the view shows.
func (m *Model) quickAddSection() (string, error) {
	if task, ok := m.selectedTask(); ok {
		return task.SectionID, nil
	}
	visible := view.VisibleSections(m.sections.List(), m.criteria())
	if len(visible) == 0 {
		return "", fmt.Errorf("no section to add into")
	}
	return visible[0].ID, nil
}

func (m Model) updateQuickAdd(msg tea.Msg) (tea.Model, tea.Cmd) {
	ctx := context.Background()

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			raw := strings.TrimSpace(m.input.Value())
			if raw != "" {
				if m.current == view.Reminders {
					m.err = m.addReminder(ctx, raw)
				} else {
					sectionID, err := m.quickAddSection()
					if err == nil {
						_, err = m.tasks.CreateFromQuickAdd(ctx, raw, sectionID, m.projects.List())
					}
					m.err = err
				}
			}
			m.state = stateList
			m.refreshItems()
			return m, nil
		case "esc":
			m.state = stateList
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// addReminder reuses the quick-add syntax; only the name and due date
// apply to a reminder.
func (m *Model) addReminder(ctx context.Context, raw string) error {
	parsed := quickadd.Parse(raw)
	var due *string
	if parsed.DueDate != nil {
		s := parsed.DueDate.Format("2006-01-02")
		due = &s
	}
	_, err := m.reminders.Create(ctx, parsed.Name, due)
	return err
}

func (m Model) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			m.search = strings.TrimSpace(m.searchInput.Value())
			m.state = stateList
			m.refreshItems()
			return m, nil
		case "esc":
			m.state = stateList
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) updateDueDate(msg tea.Msg) (tea.Model, tea.Cmd) {
	ctx := context.Background()

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			var due *string
			if !m.dateInput.IsEmpty() {
				val, err := m.dateInput.Value()
				if err != nil {
					m.err = err
					return m, nil
				}
				due = &val
			}
			if _, err := m.tasks.Update(ctx, m.dueTaskID, repo.TaskPatch{DueDate: &due}); err != nil {
				m.err = err
			} else {
				m.err = nil
			}
			m.state = stateList
			m.refreshItems()
			return m, nil
		case "esc":
			m.state = stateList
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.dateInput, cmd = m.dateInput.Update(msg)
	return m, cmd
}

func (m Model) updateNotes(msg tea.Msg) (tea.Model, tea.Cmd) {
	ctx := context.Background()

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			var notes *string
			if val := m.notesInput.Value(); val != "" {
				notes = &val
			}
			if _, err := m.tasks.Update(ctx, m.notesTaskID, repo.TaskPatch{Notes: &notes}); err != nil {
				m.err = err
			}
			m.state = stateList
			m.refreshItems()
			return m, nil
		case "ctrl+c":
			m.state = stateList
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.notesInput, cmd = m.notesInput.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	ctx := context.Background()

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "y":
			if m.current == view.Reminders {
				if item, ok := m.list.SelectedItem().(ReminderItem); ok {
					if err := m.reminders.Delete(ctx, item.Reminder.ID); err != nil {
						m.err = err
					}
				}
			} else if task, ok := m.selectedTask(); ok {
				removed, err := m.tasks.Delete(ctx, task.ID)
				if err != nil {
					m.err = err
				} else {
					m.lastDeleted = &removed
					m.lastCompleted = nil
				}
			}
			m.state = stateList
			m.refreshItems()
			return m, nil
		case "n", "esc":
			m.state = stateList
			return m, nil
		}
	}
	return m, nil
}

// statusLine shows connectivity and the pending-change backlog.
func (m Model) statusLine() string {
	if m.store.Online() {
		return statusStyle.Render("online")
	}
	line := offlineStyle.Render("offline")
	if m.cache != nil {
		if pending, err := m.cache.PendingChanges(); err == nil && len(pending) > 0 {
			line += statusStyle.Render(fmt.Sprintf(" · %d queued", len(pending)))
		}
	}
	return line
}

func (m Model) View() string {
	var errView string
	if m.err != nil {
		errView = "\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	switch m.state {
	case stateQuickAdd:
		header := "New Task"
		if m.current == view.Reminders {
			header = "New Reminder"
		}
		return appStyle.Render(
			titleStyle.Render(header) + "\n\n" +
				m.input.View() + "\n\n" +
				statusStyle.Render("enter: save • esc: cancel") +
				errView,
		)
	case stateSearch:
		return appStyle.Render(
			titleStyle.Render("Search") + "\n\n" +
				m.searchInput.View() + "\n\n" +
				statusStyle.Render("enter: apply • esc: cancel") +
				errView,
		)
	case stateDueDate:
		return appStyle.Render(
			titleStyle.Render("Set Due Date") + "\n\n" +
				m.dateInput.View() + "\n\n" +
				statusStyle.Render("enter: save • empty clears • esc: cancel") +
				errView,
		)
	case stateNotes:
		return appStyle.Render(
			titleStyle.Render("Notes") + "\n\n" +
				m.notesInput.View() + "\n\n" +
				statusStyle.Render("esc: save • ctrl+c: cancel") +
				errView,
		)
	case stateConfirm:
		name := ""
		switch item := m.list.SelectedItem().(type) {
		case TaskItem:
			name = item.Task.Name
		case ReminderItem:
			name = item.Reminder.Name
		}
		return appStyle.Render(
			confirmStyle.Render("Delete?") + "\n\n" +
				"  " + name + "\n\n" +
				statusStyle.Render("y: delete • n/esc: cancel") +
				errView,
		)
	default:
		return appStyle.Render(m.list.View() + "\n" + m.statusLine() + errView)
	}
}
