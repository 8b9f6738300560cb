package router

// Route names.
const (
	Home            = "Home"
	Login           = "Login"
	Register        = "Register"
	Marketplace     = "Marketplace"
	ServiceDetail   = "ServiceDetail"
	CreateService   = "CreateService"
	EditService     = "EditService"
	MyJobs          = "MyJobs"
	Bookings        = "Bookings"
	Chat            = "Chat"
	Profile         = "Profile"
	BecomeCraftsman = "BecomeCraftsman"
)

// Route is a named destination of the client. Path is a chi pattern.
type Route struct {
	Name              string
	Path              string
	RequiresAuth      bool
	RequiresCraftsman bool
}

// DefaultRoutes returns the destinations of the MyCraft client.
func DefaultRoutes() []Route {
	return []Route{
		{Name: Home, Path: "/"},
		{Name: Login, Path: "/login"},
		{Name: Register, Path: "/register"},
		{Name: Marketplace, Path: "/marketplace"},
		{Name: ServiceDetail, Path: "/services/{id}"},
		{Name: CreateService, Path: "/services/new", RequiresAuth: true, RequiresCraftsman: true},
		{Name: EditService, Path: "/services/{id}/edit", RequiresAuth: true, RequiresCraftsman: true},
		{Name: MyJobs, Path: "/my-jobs", RequiresAuth: true, RequiresCraftsman: true},
		{Name: Bookings, Path: "/bookings", RequiresAuth: true},
		{Name: Chat, Path: "/chat", RequiresAuth: true},
		{Name: Profile, Path: "/profile", RequiresAuth: true},
		{Name: BecomeCraftsman, Path: "/become-craftsman", RequiresAuth: true},
	}
}
