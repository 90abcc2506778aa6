package model

// DirectoryAccount - учётная запись, найденная в Active Directory.
type DirectoryAccount struct {
	DisplayName    string `json:"displayName"`
	GivenName      string `json:"givenName"`
	UserEmail      string `json:"userEmail"`
	UserID         string `json:"userId"`
	UserName       string `json:"userName"`
	Purpose        string `json:"purpose"`
	AccountExpires string `json:"accountExpires"`
	MaxPwdAge      int    `json:"maxPwdAge"`
	AccountStatus  string `json:"accountStatus"`
	LockStatus     string `json:"lockStatus"`
}

// DirectoryAccounts - контейнер результата поиска: {"data":{"values":[...]}}.
type DirectoryAccounts struct {
	Data struct {
		Values []DirectoryAccount `json:"values"`
	} `json:"data"`
}

// NewDirectoryAccounts оборачивает результат поиска. nil превращается в пустой массив.
func NewDirectoryAccounts(values []DirectoryAccount) *DirectoryAccounts {
	res := &DirectoryAccounts{}
	if values == nil {
		values = []DirectoryAccount{}
	}
	res.Data.Values = values
	return res
}
