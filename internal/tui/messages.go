package tui

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// message keys rendered through the localized printer.
const (
	msgProjectCreated    = "Project created"
	msgBacklogAdded      = "Backlog added"
	msgTodoCreated       = "To do created"
	msgBacklogRemoved    = "Backlog removed"
	msgProjectDeleted    = "Project deleted"
	msgNoFreeBacklogs    = "No free backlogs for to do"
	msgEnterProjectName  = "Enter a project name"
	msgEnterBacklogName  = "Enter a backlog name"
	msgEnterTodoFields   = "Enter a name and select a backlog"
	msgProgressNotNumber = "Progress must be a number."
	msgEmptyBacklogs     = "Empty. Add a backlog."
	msgEmptyTodos        = "No to do yet. Add a task."
	msgNoProjects        = "No projects yet."
	msgNoProjectsHint    = "Press N to create your first project."
	msgSummary           = "%d to do • %d backlog"
	msgCompleted         = "completed"
	msgCopied            = "Copied %s"
	msgLoading           = "loading..."

	msgSectionBacklog    = "Backlog"
	msgSectionTodo       = "To do"
	msgNewProjectTitle   = "New project"
	msgAddBacklogTitle   = "Add backlog to %s"
	msgNewTodoTitle      = "New to do in %s"
	msgDeleteTitle       = "Delete project %s"
	msgDeleteHint        = "Type the project name to confirm."
	msgDeleteButton      = "[ Delete ]"
	msgAvailable         = "Available: "
	msgSelected          = "Selected:  "
	msgNoPills           = "none"
	msgCreateProjectKeys = "enter create • ctrl+x close"
	msgAddBacklogKeys    = "enter add • esc/ctrl+x close"
	msgAddTodoKeys       = "tab switch list • ←/→ move • space pick • enter create • esc close"
	msgDeleteKeys        = "enter confirm • esc/ctrl+x close"
)

// supportedLocales lists the catalog languages in match priority.
var supportedLocales = []language.Tag{language.English, language.Russian}

var localeMatcher = language.NewMatcher(supportedLocales)

func init() {
	ru := map[string]string{
		msgProjectCreated:    "Проект создан",
		msgBacklogAdded:      "Backlog добавлен",
		msgTodoCreated:       "To do создан",
		msgBacklogRemoved:    "Backlog удален",
		msgProjectDeleted:    "Проект удален",
		msgNoFreeBacklogs:    "Нет свободных backlog для to do",
		msgEnterProjectName:  "Введите имя проекта",
		msgEnterBacklogName:  "Введите backlog",
		msgEnterTodoFields:   "Укажите имя и выберите backlog",
		msgProgressNotNumber: "Прогресс должен быть числом.",
		msgEmptyBacklogs:     "Пусто. Добавьте backlog.",
		msgEmptyTodos:        "Нет to do. Добавьте задачу.",
		msgNoProjects:        "Проектов пока нет.",
		msgNoProjectsHint:    "Нажмите N, чтобы создать первый проект.",
		msgSummary:           "%d to do • %d backlog",
		msgCompleted:         "completed",
		msgCopied:            "Скопировано: %s",
		msgLoading:           "загрузка...",
		msgSectionBacklog:    "Backlog",
		msgSectionTodo:       "To do",
		msgNewProjectTitle:   "Новый проект",
		msgAddBacklogTitle:   "Добавить backlog в %s",
		msgNewTodoTitle:      "Новый to do в %s",
		msgDeleteTitle:       "Удалить проект %s",
		msgDeleteHint:        "Введите имя проекта для подтверждения.",
		msgDeleteButton:      "[ Удалить ]",
		msgAvailable:         "Доступно: ",
		msgSelected:          "Выбрано:  ",
		msgNoPills:           "нет",
		msgCreateProjectKeys: "enter создать • ctrl+x закрыть",
		msgAddBacklogKeys:    "enter добавить • esc/ctrl+x закрыть",
		msgAddTodoKeys:       "tab сменить список • ←/→ выбор • space отметить • enter создать • esc закрыть",
		msgDeleteKeys:        "enter подтвердить • esc/ctrl+x закрыть",
	}
	for key, text := range ru {
		_ = message.SetString(language.Russian, key, text)
		_ = message.SetString(language.English, key, key)
	}
}

// newPrinter resolves a locale string such as "ru" or "en-US" to a catalog printer.
func newPrinter(locale string) *message.Printer {
	tag, err := language.Parse(locale)
	if err != nil {
		return message.NewPrinter(language.English)
	}
	_, idx, _ := localeMatcher.Match(tag)
	return message.NewPrinter(supportedLocales[idx])
}
