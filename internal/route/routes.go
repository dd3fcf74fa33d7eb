package route

// Route names of the console.
const (
	NameDatabaseManager = "DatabaseManager"
	NameChat            = "Chat"
)

// HomePath is where the root path redirects to.
const HomePath = "/database"

// Page units of the console.
var (
	DatabaseManager = Page{Name: NameDatabaseManager, Template: "database/manager.html", Title: "Database Manager"}
	Chat            = Page{Name: NameChat, Template: "chat/index.html", Title: "Chat"}
)

// Console returns the console's route table declarations.
func Console() []Descriptor {
	databaseManager, chat := DatabaseManager, Chat
	return []Descriptor{
		{Path: "/", Redirect: HomePath},
		{Path: "/database", Name: NameDatabaseManager, Page: &databaseManager},
		{Path: "/chat", Name: NameChat, Page: &chat},
	}
}

// Default builds the console's route table.
func Default(opts ...Option) *Table {
	return MustNew(Console(), opts...)
}
