package web

type MenuItem struct {
	Name string
	URL  string
}

var menuItems = []MenuItem{
	{
		Name: "Ducks",
		URL:  "/",
	},
}
