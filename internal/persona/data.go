package persona

var sexes = []string{"Female", "Male"}

var femaleNames = []string{
	"Mary", "Patricia", "Jennifer", "Linda", "Elizabeth", "Barbara", "Susan", "Jessica",
	"Sarah", "Karen", "Lisa", "Nancy", "Margaret", "Sandra", "Ashley", "Kimberly",
	"Emily", "Donna", "Michelle", "Carol", "Amanda", "Melissa", "Deborah", "Stephanie",
	"Rebecca", "Laura", "Helen", "Anna", "Emma", "Nicole", "Rachel", "Catherine",
	"Maria", "Heather", "Olivia", "Sofia", "Chloe", "Grace", "Hannah", "Julia",
}

var maleNames = []string{
	"James", "Robert", "John", "Michael", "David", "William", "Richard", "Joseph",
	"Thomas", "Charles", "Christopher", "Daniel", "Matthew", "Anthony", "Mark", "Donald",
	"Steven", "Paul", "Andrew", "Joshua", "Kenneth", "Kevin", "Brian", "George",
	"Timothy", "Ronald", "Edward", "Jason", "Jeffrey", "Ryan", "Jacob", "Nicholas",
	"Eric", "Jonathan", "Stephen", "Samuel", "Benjamin", "Patrick", "Alexander", "Henry",
}

var surnames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
	"Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson", "Thomas",
	"Taylor", "Moore", "Jackson", "Martin", "Lee", "Perez", "Thompson", "White",
	"Harris", "Sanchez", "Clark", "Ramirez", "Lewis", "Robinson", "Walker", "Young",
	"Allen", "King", "Wright", "Scott", "Torres", "Nguyen", "Hill", "Flores",
	"Green", "Adams", "Nelson", "Baker", "Hall", "Rivera", "Campbell", "Mitchell",
	"Carter", "Roberts", "Gomez", "Phillips", "Evans", "Turner", "Diaz", "Parker",
	"Van Dyke", "O'Brien", "Kowalski", "Novak", "Fischer", "Rossi", "Dubois", "Silva",
}

var cities = []string{
	"Springfield", "Riverside", "Franklin", "Greenville", "Bristol", "Clinton",
	"Fairview", "Salem", "Madison", "Georgetown", "Arlington", "Ashland",
	"Dover", "Oxford", "Jackson", "Burlington", "Manchester", "Milton",
	"Newport", "Auburn", "Dayton", "Lexington", "Milford", "Winchester",
}

var countries = []string{
	"United States", "Canada", "United Kingdom", "Ireland", "Australia", "New Zealand",
	"Germany", "France", "Spain", "Italy", "Portugal", "Netherlands",
	"Sweden", "Norway", "Poland", "Mexico", "Brazil", "Argentina",
	"India", "Japan", "South Korea", "Philippines", "South Africa", "Kenya",
}

var authorities = []string{
	"Department of State", "Passport Office", "Ministry of Foreign Affairs",
	"Ministry of Interior", "Home Office", "Federal Office of Administration",
}

var eyeColours = []string{"Brown", "Blue", "Green", "Hazel", "Grey", "Amber"}

var hairColours = []string{"Black", "Brown", "Blonde", "Red", "Grey", "White", "Bald"}

var marks = []string{
	"None", "Scar on left forearm", "Mole on right cheek", "Tattoo on right shoulder",
	"Birthmark on neck", "Scar above left eyebrow", "Pierced ears", "Freckles",
}

var streetNames = []string{
	"Oak", "Maple", "Cedar", "Pine", "Elm", "Washington", "Lake", "Hill",
	"Park", "Main", "Church", "High", "Walnut", "Chestnut", "Sunset", "Ridge",
}

var streetSuffixes = []string{"St", "Ave", "Rd", "Blvd", "Ln", "Dr", "Ct", "Way"}
