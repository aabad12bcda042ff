package linear

const issueFields = `
	id
	identifier
	title
	description
	priority
	url
	createdAt
	estimate
	state { id name type }
	assignee { id name displayName email }
	team { id name key }
	labels { nodes { id name } }
`

const teamFields = `
	id
	name
	key
	description
	states { nodes { id name type color } }
`

const createIssueMutation = `mutation IssueCreate($input: IssueCreateInput!) {
	issueCreate(input: $input) {
		success
		issue {` + issueFields + `}
	}
}`

const searchIssuesQuery = `query SearchIssues($filter: IssueFilter, $first: Int) {
	issues(filter: $filter, first: $first) {
		nodes {` + issueFields + `}
	}
}`

const assignedIssuesQuery = `query AssignedIssues($filter: IssueFilter, $first: Int) {
	viewer {
		id
		assignedIssues(filter: $filter, first: $first) {
			nodes {` + issueFields + `}
		}
	}
}`

const issueQuery = `query Issue($id: String!) {
	issue(id: $id) {` + issueFields + `}
}`

const viewerQuery = `query Viewer {
	viewer { id name displayName email }
}`

const organizationQuery = `query Organization {
	organization { id name urlKey }
}`

const teamsQuery = `query Teams($first: Int) {
	teams(first: $first) {
		nodes {` + teamFields + `}
	}
}`

const teamQuery = `query Team($id: String!) {
	team(id: $id) {` + teamFields + `}
}`
